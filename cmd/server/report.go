package main

import (
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/rl1809/garage-ledger/internal/core/domain"
	"github.com/rl1809/garage-ledger/internal/core/ledger"
	"github.com/rl1809/garage-ledger/internal/core/service"
)

var (
	reportFrom string
	reportTo   string
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print the financial summary and the critical stock list",
	RunE:  runReport,
}

func init() {
	reportCmd.Flags().StringVar(&reportFrom, "from", "", "first day included, YYYY-MM-DD")
	reportCmd.Flags().StringVar(&reportTo, "to", "", "last day included, YYYY-MM-DD")
}

// operator is the principal used by local commands.
var operator = domain.Session{Name: "cli", Role: domain.RoleOwner}

func runReport(cmd *cobra.Command, _ []string) error {
	period, err := service.PeriodFromDates(reportFrom, reportTo)
	if err != nil {
		return err
	}

	store, db, err := openStore(cmd.Context())
	if err != nil {
		return err
	}
	defer db.Close()

	roles, err := cfg.Roles()
	if err != nil {
		return err
	}
	// no cache: the report always reads the store
	dashboard := service.NewDashboardService(store, store, nil, roles, 0, logger, nil)
	return writeReport(cmd, dashboard, period)
}

func writeReport(cmd *cobra.Command, dashboard *service.DashboardService, period service.Period) error {
	ctx := cmd.Context()
	financial, err := dashboard.Summary(ctx, operator, period)
	if err != nil {
		return err
	}
	payouts, err := dashboard.Payouts(ctx, operator, period)
	if err != nil {
		return err
	}
	stock, err := dashboard.CriticalStock(ctx)
	if err != nil {
		return err
	}
	return printReport(cmd.OutOrStdout(), financial, payouts, stock)
}

func printReport(w io.Writer, financial *service.FinancialReport, payouts []ledger.Payout, stock *service.StockReport) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	s := financial.Summary

	fmt.Fprintln(tw, "FINANCIAL SUMMARY")
	fmt.Fprintf(tw, "Orders\t%d\n", s.OrderCount)
	fmt.Fprintf(tw, "Gross revenue\t%s\n", domain.Display(s.GrossRevenue))
	fmt.Fprintf(tw, "Parts cost\t%s\n", domain.Display(s.PartsCost))
	fmt.Fprintf(tw, "Commission\t%s\n", domain.Display(s.TotalCommission))
	fmt.Fprintf(tw, "Net profit\t%s\n", domain.Display(s.NetProfit))

	if len(financial.Statuses) > 0 {
		statuses := make([]string, 0, len(financial.Statuses))
		for status := range financial.Statuses {
			statuses = append(statuses, status)
		}
		sort.Strings(statuses)
		fmt.Fprintln(tw)
		fmt.Fprintln(tw, "STATUS\tORDERS")
		for _, status := range statuses {
			fmt.Fprintf(tw, "%s\t%d\n", status, financial.Statuses[status])
		}
	}

	if len(payouts) > 0 {
		fmt.Fprintln(tw)
		fmt.Fprintln(tw, "MECHANIC\tORDERS\tLABOR\tCOMMISSION")
		for _, p := range payouts {
			fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n", p.MechanicID, p.Orders, domain.Display(p.Labor), domain.Display(p.Commission))
		}
	}

	fmt.Fprintln(tw)
	fmt.Fprintf(tw, "CRITICAL STOCK (%d)\n", len(stock.Items))
	if len(stock.Items) > 0 {
		fmt.Fprintln(tw, "ITEM\tQTY\tMIN\tREORDER")
		for _, item := range stock.Items {
			fmt.Fprintf(tw, "%s\t%d\t%d\t%d\n", item.Name, item.Quantity, item.MinimumQuantity, ledger.ReorderQuantity(item))
		}
	}
	fmt.Fprintf(tw, "Stock value\t%s\n", domain.Display(stock.StockValue))
	return tw.Flush()
}
