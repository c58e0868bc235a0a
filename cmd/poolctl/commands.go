package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/vaidashi/pool-dealer-portal/internal/api"
	"github.com/vaidashi/pool-dealer-portal/internal/authz"
	"github.com/vaidashi/pool-dealer-portal/internal/models"
)

// operator is the identity poolctl acts as. Access to the database already implies it.
var operator = &authz.Identity{
	UserID:   "poolctl",
	Role:     models.RoleSuperAdmin,
	Approved: true,
}

type command func(ctx context.Context, svc api.Services, out io.Writer, args []string) error

var commands = map[string]command{
	"stock":           stockCmd,
	"low-stock":       lowStockCmd,
	"dealer-metrics":  dealerMetricsCmd,
	"bootstrap-admin": bootstrapAdminCmd,
	"outbox":          outboxCmd,
	"outbox-requeue":  outboxRequeueCmd,
}

func run(ctx context.Context, svc api.Services, out io.Writer, name string, args []string) error {
	cmd, ok := commands[name]
	if !ok {
		return fmt.Errorf("unknown command %q", name)
	}
	return cmd(ctx, svc, out, args)
}

func render(out io.Writer, header []string, rows [][]string) error {
	cells := make([]any, len(header))
	for i, h := range header {
		cells[i] = h
	}

	table := tablewriter.NewWriter(out)
	table.Header(cells...)
	for _, row := range rows {
		if err := table.Append(row); err != nil {
			return err
		}
	}
	return table.Render()
}

func stockCmd(ctx context.Context, svc api.Services, out io.Writer, _ []string) error {
	summary, err := svc.Reports.PoolStockSummary(ctx, operator)
	if err != nil {
		return err
	}

	header := []string{"Factory"}
	for _, s := range models.PoolStockStatuses {
		header = append(header, string(s))
	}
	header = append(header, "Total")

	rows := make([][]string, 0, len(summary))
	for _, f := range summary {
		row := []string{f.FactoryName}
		for _, s := range models.PoolStockStatuses {
			row = append(row, strconv.Itoa(f.Buckets[s]))
		}
		rows = append(rows, append(row, strconv.Itoa(f.Total)))
	}
	return render(out, header, rows)
}

func lowStockCmd(ctx context.Context, svc api.Services, out io.Writer, _ []string) error {
	levels, err := svc.Inventory.LowStock(ctx, operator)
	if err != nil {
		return err
	}
	if len(levels) == 0 {
		_, err := fmt.Fprintln(out, "no items below minimum")
		return err
	}

	rows := make([][]string, 0, len(levels))
	for _, l := range levels {
		rows = append(rows, []string{l.SKU, l.ItemName, l.FactoryName, strconv.Itoa(l.OnHand), strconv.Itoa(l.MinStock)})
	}
	return render(out, []string{"SKU", "Item", "Factory", "On hand", "Min"}, rows)
}

func dealerMetricsCmd(ctx context.Context, svc api.Services, out io.Writer, args []string) error {
	fs := flag.NewFlagSet("dealer-metrics", flag.ContinueOnError)
	fs.SetOutput(out)
	dealerID := fs.String("dealer", "", "dealer id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *dealerID == "" {
		return errors.New("-dealer is required")
	}

	m, err := svc.Reports.DealerMetrics(ctx, operator, *dealerID)
	if err != nil {
		return err
	}

	statuses := make([][]string, 0, len(models.OrderStatuses))
	for _, s := range models.OrderStatuses {
		statuses = append(statuses, []string{string(s), strconv.Itoa(m.ByStatus[s])})
	}
	statuses = append(statuses, []string{"TOTAL", strconv.Itoa(m.TotalOrders)})
	if err := render(out, []string{"Status", "Orders"}, statuses); err != nil {
		return err
	}

	months := make([][]string, 0, len(m.Monthly))
	for _, mc := range m.Monthly {
		months = append(months, []string{mc.Month, strconv.Itoa(mc.Count)})
	}
	return render(out, []string{"Month", "Orders"}, months)
}

func bootstrapAdminCmd(ctx context.Context, svc api.Services, out io.Writer, args []string) error {
	fs := flag.NewFlagSet("bootstrap-admin", flag.ContinueOnError)
	fs.SetOutput(out)
	email := fs.String("email", "", "superadmin email")
	password := fs.String("password", "", "superadmin password")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *email == "" || *password == "" {
		return errors.New("-email and -password are required")
	}

	created, err := svc.Auth.BootstrapAdmin(ctx, *email, *password)
	if err != nil {
		return err
	}
	if !created {
		_, err = fmt.Fprintln(out, "a superadmin already exists, nothing to do")
		return err
	}
	_, err = fmt.Fprintf(out, "superadmin %s created\n", *email)
	return err
}

func outboxCmd(ctx context.Context, svc api.Services, out io.Writer, _ []string) error {
	counts, err := svc.Outbox.Counts(ctx, operator)
	if err != nil {
		return err
	}

	statuses := make([]string, 0, len(counts))
	for s := range counts {
		statuses = append(statuses, string(s))
	}
	sort.Strings(statuses)

	rows := make([][]string, 0, len(statuses))
	for _, s := range statuses {
		rows = append(rows, []string{s, strconv.Itoa(counts[models.OutboxStatus(s)])})
	}
	return render(out, []string{"Status", "Messages"}, rows)
}

func outboxRequeueCmd(ctx context.Context, svc api.Services, out io.Writer, _ []string) error {
	n, err := svc.Outbox.Requeue(ctx, operator)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(out, "requeued %d failed messages\n", n)
	return err
}
