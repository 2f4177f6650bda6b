package engine

// Revenue and expense bucket names. Unknown buckets are silently ignored so
// a stray caller cannot invent accounting categories.
const (
	RevenueBusinesses = "businesses"
	RevenueMiniGames  = "mini_games"
	RevenueEvents     = "events"

	ExpenseMaintenance = "maintenance"
	ExpenseSalaries    = "salaries"
)

// StartingBalance is the default bankroll for a new tower.
const StartingBalance = 1000

// Upgrade is a permanent economy modifier. A RevenueMultiplier scales the
// accumulated revenue buckets; an ExpenseReduction shrinks the accumulated
// expense buckets by the given fraction.
type Upgrade struct {
	Name              string  `json:"name"`
	RevenueMultiplier float64 `json:"revenue_multiplier,omitempty"`
	ExpenseReduction  float64 `json:"expense_reduction,omitempty"`
}

// Ledger tracks the tower's money: the running balance plus per-day revenue
// and expense buckets that roll into the balance at midnight. It is not safe
// for concurrent use; the engine serializes access.
type Ledger struct {
	balance  float64
	revenue  map[string]float64
	expenses map[string]float64
	upgrades []Upgrade
}

// NewLedger creates a ledger with the starting balance. A non-positive
// startingBalance keeps the default.
func NewLedger(startingBalance float64) *Ledger {
	if startingBalance <= 0 {
		startingBalance = StartingBalance
	}
	return &Ledger{
		balance: startingBalance,
		revenue: map[string]float64{
			RevenueBusinesses: 0,
			RevenueMiniGames:  0,
			RevenueEvents:     0,
		},
		expenses: map[string]float64{
			ExpenseMaintenance: 0,
			ExpenseSalaries:    0,
		},
	}
}

// Balance returns the current bankroll.
func (l *Ledger) Balance() float64 {
	return l.balance
}

// AddRevenue accrues amount into the named revenue bucket. Unknown buckets
// are a no-op.
func (l *Ledger) AddRevenue(source string, amount float64) {
	if _, ok := l.revenue[source]; ok {
		l.revenue[source] += amount
	}
}

// AddExpense accrues amount into the named expense bucket. Unknown buckets
// are a no-op.
func (l *Ledger) AddExpense(category string, amount float64) {
	if _, ok := l.expenses[category]; ok {
		l.expenses[category] += amount
	}
}

// DailyRevenue sums the accumulated revenue buckets.
func (l *Ledger) DailyRevenue() float64 {
	var total float64
	for _, v := range l.revenue {
		total += v
	}
	return total
}

// DailyExpenses sums the accumulated expense buckets.
func (l *Ledger) DailyExpenses() float64 {
	var total float64
	for _, v := range l.expenses {
		total += v
	}
	return total
}

// UpdateBalance rolls the accumulated buckets into the balance and returns
// the net change. The buckets keep their values until ResetDailyValues.
func (l *Ledger) UpdateBalance() float64 {
	net := l.DailyRevenue() - l.DailyExpenses()
	l.balance += net
	return net
}

// ApplyUpgrade records the upgrade and rescales the current buckets.
func (l *Ledger) ApplyUpgrade(u Upgrade) {
	l.upgrades = append(l.upgrades, u)
	if u.RevenueMultiplier != 0 {
		for k := range l.revenue {
			l.revenue[k] *= u.RevenueMultiplier
		}
	}
	if u.ExpenseReduction != 0 {
		for k := range l.expenses {
			l.expenses[k] *= 1 - u.ExpenseReduction
		}
	}
}

// Upgrades returns a copy of the applied upgrade history.
func (l *Ledger) Upgrades() []Upgrade {
	out := make([]Upgrade, len(l.upgrades))
	copy(out, l.upgrades)
	return out
}

// ResetDailyValues zeroes the revenue and expense buckets for a new day.
func (l *Ledger) ResetDailyValues() {
	for k := range l.revenue {
		l.revenue[k] = 0
	}
	for k := range l.expenses {
		l.expenses[k] = 0
	}
}

// Withdraw deducts a one-off cost, refusing if funds are insufficient.
func (l *Ledger) Withdraw(amount float64) bool {
	if amount < 0 || amount > l.balance {
		return false
	}
	l.balance -= amount
	return true
}

// Deposit adds a one-off reward straight to the balance.
func (l *Ledger) Deposit(amount float64) {
	if amount > 0 {
		l.balance += amount
	}
}

// FinancialReport is the daily accounting snapshot served to clients.
type FinancialReport struct {
	Balance       float64            `json:"balance"`
	DailyRevenue  float64            `json:"daily_revenue"`
	DailyExpenses float64            `json:"daily_expenses"`
	Revenue       map[string]float64 `json:"revenue"`
	Expenses      map[string]float64 `json:"expenses"`
	Upgrades      []Upgrade          `json:"upgrades"`
}

// Report snapshots the ledger.
func (l *Ledger) Report() FinancialReport {
	rev := make(map[string]float64, len(l.revenue))
	for k, v := range l.revenue {
		rev[k] = v
	}
	exp := make(map[string]float64, len(l.expenses))
	for k, v := range l.expenses {
		exp[k] = v
	}
	return FinancialReport{
		Balance:       l.balance,
		DailyRevenue:  l.DailyRevenue(),
		DailyExpenses: l.DailyExpenses(),
		Revenue:       rev,
		Expenses:      exp,
		Upgrades:      l.Upgrades(),
	}
}
