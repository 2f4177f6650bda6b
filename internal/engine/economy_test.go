package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLedgerStartingBalance(t *testing.T) {
	assert.Equal(t, float64(StartingBalance), NewLedger(0).Balance())
	assert.Equal(t, float64(StartingBalance), NewLedger(-50).Balance())
	assert.Equal(t, 250000.0, NewLedger(250000).Balance())
}

func TestLedgerAccrualAndRollup(t *testing.T) {
	l := NewLedger(0)

	l.AddRevenue(RevenueBusinesses, 500)
	l.AddRevenue(RevenueEvents, 100)
	l.AddExpense(ExpenseMaintenance, 150)
	l.AddExpense(ExpenseSalaries, 50)

	assert.Equal(t, 600.0, l.DailyRevenue())
	assert.Equal(t, 200.0, l.DailyExpenses())

	net := l.UpdateBalance()
	assert.Equal(t, 400.0, net)
	assert.Equal(t, float64(StartingBalance)+400, l.Balance())

	// Rollup does not clear the buckets; only the explicit reset does.
	assert.Equal(t, 600.0, l.DailyRevenue())
	l.ResetDailyValues()
	assert.Zero(t, l.DailyRevenue())
	assert.Zero(t, l.DailyExpenses())
}

func TestLedgerIgnoresUnknownBuckets(t *testing.T) {
	l := NewLedger(0)
	l.AddRevenue("casino", 10000)
	l.AddExpense("bribes", 10000)
	assert.Zero(t, l.DailyRevenue())
	assert.Zero(t, l.DailyExpenses())
}

func TestLedgerApplyUpgradeRescalesBuckets(t *testing.T) {
	l := NewLedger(0)
	l.AddRevenue(RevenueBusinesses, 1000)
	l.AddExpense(ExpenseMaintenance, 400)

	l.ApplyUpgrade(Upgrade{Name: "Marketing Campaign", RevenueMultiplier: 1.5})
	assert.Equal(t, 1500.0, l.DailyRevenue())
	assert.Equal(t, 400.0, l.DailyExpenses())

	l.ApplyUpgrade(Upgrade{Name: "Solar Panels", ExpenseReduction: 0.25})
	assert.Equal(t, 300.0, l.DailyExpenses())

	require.Len(t, l.Upgrades(), 2)
	assert.Equal(t, "Marketing Campaign", l.Upgrades()[0].Name)
}

func TestLedgerWithdraw(t *testing.T) {
	l := NewLedger(1000)

	assert.True(t, l.Withdraw(600))
	assert.Equal(t, 400.0, l.Balance())

	assert.False(t, l.Withdraw(500), "insufficient funds must be refused")
	assert.Equal(t, 400.0, l.Balance())

	assert.False(t, l.Withdraw(-10), "negative withdrawals must be refused")
	assert.Equal(t, 400.0, l.Balance())
}

func TestLedgerDeposit(t *testing.T) {
	l := NewLedger(1000)
	l.Deposit(500)
	assert.Equal(t, 1500.0, l.Balance())
	l.Deposit(-500)
	assert.Equal(t, 1500.0, l.Balance(), "negative deposits are ignored")
}

func TestLedgerReportIsACopy(t *testing.T) {
	l := NewLedger(0)
	l.AddRevenue(RevenueBusinesses, 100)

	report := l.Report()
	report.Revenue[RevenueBusinesses] = 9999

	assert.Equal(t, 100.0, l.DailyRevenue(), "mutating a report must not touch the ledger")
	assert.Equal(t, 100.0, l.Report().Revenue[RevenueBusinesses])
}
