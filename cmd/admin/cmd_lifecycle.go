package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"civicledger/backend/internal/analysis"
	"civicledger/backend/internal/audit"
	"civicledger/backend/internal/complaint"
	"civicledger/backend/internal/feed"
	"civicledger/backend/internal/storage"
)

const adminActor = "admin-cli"

// notifier is the Redis surface running API instances listen on: the audit
// cache and the transition channel. storage.RedisStore implements it.
type notifier interface {
	audit.Cache
	feed.Broker
}

func lifecycleService(e *env) *complaint.Service {
	if e.redis == nil {
		return newLifecycleService(e.store, e.policy, nil, 0, e.log)
	}
	return newLifecycleService(e.store, e.policy, e.redis, e.cfg.AuditCacheTTL, e.log)
}

// newLifecycleService builds the service used by delete and restore. With a
// notifier, each transition drops the cached audit record and is published
// to the live feed of every API instance.
func newLifecycleService(s storage.Storage, policy *analysis.Policy, n notifier, cacheTTL time.Duration, log logrus.FieldLogger) *complaint.Service {
	svc := complaint.NewService(s, policy, nil, nil, nil, log)
	if n == nil {
		log.Warn("REDIS_ADDR not set, cached audit records and live feeds will not see this change")
		return svc
	}
	if cacheTTL <= 0 {
		cacheTTL = time.Minute
	}
	svc.Observe(
		audit.NewQuery(s, policy, log).WithCache(n, cacheTTL),
		feed.NewHub(n, log),
	)
	return svc
}

var deleteCmd = &cobra.Command{
	Use:   "delete <complaint_id>",
	Short: "Soft-delete a resolved or fraud-flagged grievance",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv()
		if err != nil {
			return err
		}
		if err := lifecycleService(e).Delete(cmd.Context(), args[0], adminActor); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Grievance %s moved to DELETED.\n", args[0])
		return nil
	},
}

var restoreCmd = &cobra.Command{
	Use:   "restore <complaint_id>",
	Short: "Restore a deleted grievance to RESOLVED or FRAUD",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv()
		if err != nil {
			return err
		}
		status, err := lifecycleService(e).Restore(cmd.Context(), args[0], adminActor)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Grievance %s restored to %s.\n", args[0], status)
		return nil
	},
}

var listDeletedCmd = &cobra.Command{
	Use:   "list-deleted",
	Short: "List soft-deleted grievances",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		e, err := openEnv()
		if err != nil {
			return err
		}
		list, err := lifecycleService(e).ListDeleted(cmd.Context())
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "COMPLAINT\tTYPE\tOFFICER\tRESOLVED AT")
		for _, g := range list {
			resolvedAt := "N/A"
			if g.ResolvedAt != nil {
				resolvedAt = g.ResolvedAt.Format("2006-01-02 15:04:05")
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", g.ComplaintID, g.Classification, g.AssignedOfficerID, resolvedAt)
		}
		return w.Flush()
	},
}
