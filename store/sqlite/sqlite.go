/*
Package sqlite is the production store.Store, backed by SQLite through
database/sql and mattn/go-sqlite3.

KEY TABLES:
  accounts               one row per ledger account
  recurring_schedules    recurring cash-flow templates (expenses/transfers)
  recurring_incomes      recurring cash-flow templates (income)
  recurring_instances     per-occurrence overrides/status for a schedule
  one_off_transactions   single dated cash events
  manual_account_states  user-entered balance anchors
  imported_transactions  bank-feed rows awaiting or holding reconciliation
  scenarios              named what-if overlays
  tags                   category tree, self-referencing via parent_id

CONCURRENCY:
  A single sync.RWMutex serializes access from this process; SQLite's own
  file locking handles cross-process safety. WAL mode lets readers run
  alongside the single writer.

MIGRATION:
  Schema is created with CREATE TABLE IF NOT EXISTS on New() - there are
  no versioned migrations here, matching a demo deployment's scope. A
  production rollout would swap this for golang-migrate or goose.

SEE ALSO:
  - store/store.go: the interface this type implements.
  - store/memory: an in-process implementation with the same contract,
    used by tests and the fixtures loader.
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/warp/resource-engine/engine"
	"github.com/warp/resource-engine/store"
)

type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New opens (and migrates) a SQLite-backed store at dbPath. Use
// ":memory:" for an ephemeral database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: migrate: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS accounts (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		currency_code TEXT NOT NULL,
		owner_id TEXT NOT NULL,
		include_in_statistics INTEGER NOT NULL,
		kind TEXT NOT NULL,
		target_amount TEXT,
		ledger_name TEXT
	);

	CREATE TABLE IF NOT EXISTS tags (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		parent_id TEXT,
		description TEXT
	);

	CREATE TABLE IF NOT EXISTS scenarios (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		created_at TEXT NOT NULL,
		is_active INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS recurring_schedules (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		amount TEXT NOT NULL,
		start_date TEXT NOT NULL,
		end_date TEXT,
		period TEXT NOT NULL,
		target_account_id TEXT NOT NULL REFERENCES accounts(id),
		source_account_id TEXT REFERENCES accounts(id),
		include_in_statistics INTEGER NOT NULL,
		category_id TEXT,
		scenario_id TEXT REFERENCES scenarios(id),
		is_simulated INTEGER NOT NULL,
		tags_json TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS recurring_incomes (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		amount TEXT NOT NULL,
		start_date TEXT NOT NULL,
		end_date TEXT,
		period TEXT NOT NULL,
		target_account_id TEXT NOT NULL REFERENCES accounts(id),
		source_name TEXT,
		include_in_statistics INTEGER NOT NULL,
		category_id TEXT,
		scenario_id TEXT REFERENCES scenarios(id),
		is_simulated INTEGER NOT NULL,
		tags_json TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS recurring_instances (
		id TEXT PRIMARY KEY,
		schedule_id TEXT NOT NULL REFERENCES recurring_schedules(id),
		status TEXT NOT NULL,
		due_date TEXT NOT NULL,
		expected_amount TEXT NOT NULL,
		paid_date TEXT,
		paid_amount TEXT,
		reconciled_import_id TEXT,
		category_id TEXT,
		tags_json TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS one_off_transactions (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		amount TEXT NOT NULL,
		date TEXT NOT NULL,
		target_account_id TEXT NOT NULL REFERENCES accounts(id),
		source_account_id TEXT REFERENCES accounts(id),
		include_in_statistics INTEGER NOT NULL,
		category_id TEXT,
		scenario_id TEXT REFERENCES scenarios(id),
		is_simulated INTEGER NOT NULL,
		reconciled_schedule_id TEXT,
		linked_import_id TEXT
	);

	CREATE TABLE IF NOT EXISTS manual_account_states (
		id TEXT PRIMARY KEY,
		account_id TEXT NOT NULL REFERENCES accounts(id),
		date TEXT NOT NULL,
		amount TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS imported_transactions (
		id TEXT PRIMARY KEY,
		account_id TEXT NOT NULL REFERENCES accounts(id),
		date TEXT NOT NULL,
		description TEXT NOT NULL,
		amount TEXT NOT NULL,
		import_hash TEXT NOT NULL UNIQUE,
		reconciled_kind TEXT,
		reconciled_id TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_schedules_target ON recurring_schedules(target_account_id);
	CREATE INDEX IF NOT EXISTS idx_incomes_target ON recurring_incomes(target_account_id);
	CREATE INDEX IF NOT EXISTS idx_instances_schedule ON recurring_instances(schedule_id);
	CREATE INDEX IF NOT EXISTS idx_oneoffs_target_date ON one_off_transactions(target_account_id, date);
	CREATE INDEX IF NOT EXISTS idx_manual_states_account_date ON manual_account_states(account_id, date);
	CREATE INDEX IF NOT EXISTS idx_imports_account_date ON imported_transactions(account_id, date);
	`
	_, err := s.db.Exec(schema)
	return err
}

const dateLayout = "2006-01-02"

func formatDate(d engine.Date) string { return d.Time().Format(dateLayout) }

func parseDateColumn(v string) (engine.Date, error) {
	t, err := time.Parse(dateLayout, v)
	if err != nil {
		return engine.Date{}, err
	}
	return engine.DateFromTime(t), nil
}

func nullableDate(d *engine.Date) sql.NullString {
	if d == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatDate(*d), Valid: true}
}

func nullableString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullableAmount(a *engine.Amount) sql.NullString {
	if a == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: a.Value.String(), Valid: true}
}

func nullableTagID(id *engine.TagID) sql.NullString {
	if id == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: string(*id), Valid: true}
}

func encodeTags(tags []engine.TagID) string {
	raw, _ := json.Marshal(tags)
	return string(raw)
}

func decodeTags(raw string) []engine.TagID {
	if raw == "" {
		return nil
	}
	var tags []engine.TagID
	_ = json.Unmarshal([]byte(raw), &tags)
	return tags
}

// ---- accounts ----------------------------------------------------------

func (s *Store) LoadAccounts(ctx context.Context, scope store.Scope) ([]engine.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := "SELECT id, name, currency_code, owner_id, include_in_statistics, kind, target_amount, ledger_name FROM accounts"
	args := []any{}
	if len(scope.AccountIDs) > 0 {
		query += " WHERE id IN (" + placeholders(len(scope.AccountIDs)) + ")"
		for _, id := range scope.AccountIDs {
			args = append(args, string(id))
		}
	} else if scope.OwnerID != nil {
		query += " WHERE owner_id = ?"
		args = append(args, string(*scope.OwnerID))
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: load accounts: %w", err)
	}
	defer rows.Close()

	var out []engine.Account
	for rows.Next() {
		var a engine.Account
		var includeStats int
		var target, ledgerName sql.NullString
		if err := rows.Scan(&a.ID, &a.Name, &a.CurrencyCode, &a.OwnerID, &includeStats, &a.Kind, &target, &ledgerName); err != nil {
			return nil, fmt.Errorf("sqlite: scan account: %w", err)
		}
		a.IncludeInStatistics = includeStats != 0
		if target.Valid {
			amt, err := engine.ParseAmount(target.String)
			if err != nil {
				return nil, fmt.Errorf("sqlite: account %s target_amount: %w", a.ID, err)
			}
			a.TargetAmount = &amt
		}
		if ledgerName.Valid {
			ln := ledgerName.String
			a.LedgerName = &ln
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// SaveAccounts upserts accounts. This sits outside the Writer contract
// (package finance never creates accounts on the engine's behalf) but
// is exercised by the fixtures loader and admin tooling that provision
// a deployment's chart of accounts before any projection runs - the
// same shape as the donor's SaveEmployee/SavePolicy methods, which also
// sat on the concrete store rather than the engine-facing interface.
func (s *Store) SaveAccounts(ctx context.Context, accounts []engine.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.withTxDB(ctx, func(db execer) error {
		for _, a := range accounts {
			_, err := db.ExecContext(ctx, `
				INSERT INTO accounts (id, name, currency_code, owner_id, include_in_statistics, kind, target_amount, ledger_name)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?)
				ON CONFLICT(id) DO UPDATE SET
					name=excluded.name, currency_code=excluded.currency_code, owner_id=excluded.owner_id,
					include_in_statistics=excluded.include_in_statistics, kind=excluded.kind,
					target_amount=excluded.target_amount, ledger_name=excluded.ledger_name`,
				a.ID, a.Name, a.CurrencyCode, a.OwnerID, boolToInt(a.IncludeInStatistics), a.Kind,
				nullableAmount(a.TargetAmount), nullableString(a.LedgerName))
			if err != nil {
				return fmt.Errorf("sqlite: save account %s: %w", a.ID, err)
			}
		}
		return nil
	})
}

func placeholders(n int) string {
	out := ""
	for i := 0; i < n; i++ {
		if i > 0 {
			out += ","
		}
		out += "?"
	}
	return out
}

// ---- schedules ----------------------------------------------------------

func (s *Store) LoadSchedules(ctx context.Context, scope store.Scope, view engine.ScenarioView) ([]engine.RecurringSchedule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, amount, start_date, end_date, period, target_account_id,
		       source_account_id, include_in_statistics, category_id, scenario_id,
		       is_simulated, tags_json
		FROM recurring_schedules`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: load schedules: %w", err)
	}
	defer rows.Close()

	var all []engine.RecurringSchedule
	for rows.Next() {
		sc, err := scanSchedule(rows)
		if err != nil {
			return nil, err
		}
		if scopeMatches(scope, sc.TargetAccountID) {
			all = append(all, sc)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return view.FilterSchedules(all), nil
}

func scanSchedule(rows *sql.Rows) (engine.RecurringSchedule, error) {
	var sc engine.RecurringSchedule
	var amount, start string
	var end, sourceAccount, categoryID, scenarioID sql.NullString
	var includeStats, isSimulated int
	var tagsJSON string

	if err := rows.Scan(&sc.ID, &sc.Name, &amount, &start, &end, &sc.Period, &sc.TargetAccountID,
		&sourceAccount, &includeStats, &categoryID, &scenarioID, &isSimulated, &tagsJSON); err != nil {
		return engine.RecurringSchedule{}, fmt.Errorf("sqlite: scan schedule: %w", err)
	}

	amt, err := engine.ParseAmount(amount)
	if err != nil {
		return engine.RecurringSchedule{}, fmt.Errorf("sqlite: schedule %s amount: %w", sc.ID, err)
	}
	sc.Amount = amt

	startDate, err := parseDateColumn(start)
	if err != nil {
		return engine.RecurringSchedule{}, fmt.Errorf("sqlite: schedule %s start_date: %w", sc.ID, err)
	}
	sc.StartDate = startDate

	if end.Valid {
		endDate, err := parseDateColumn(end.String)
		if err != nil {
			return engine.RecurringSchedule{}, fmt.Errorf("sqlite: schedule %s end_date: %w", sc.ID, err)
		}
		sc.EndDate = &endDate
	}
	if sourceAccount.Valid {
		id := engine.AccountID(sourceAccount.String)
		sc.SourceAccountID = &id
	}
	if categoryID.Valid {
		id := engine.CategoryID(categoryID.String)
		sc.CategoryID = &id
	}
	if scenarioID.Valid {
		id := engine.ScenarioID(scenarioID.String)
		sc.ScenarioID = &id
	}
	sc.IncludeInStatistics = includeStats != 0
	sc.IsSimulated = isSimulated != 0
	sc.Tags = decodeTags(tagsJSON)
	return sc, nil
}

func scopeMatches(scope store.Scope, accountID engine.AccountID) bool {
	if len(scope.AccountIDs) == 0 {
		return true
	}
	for _, id := range scope.AccountIDs {
		if id == accountID {
			return true
		}
	}
	return false
}

func (s *Store) SaveSchedules(ctx context.Context, schedules []engine.RecurringSchedule) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.withTxDB(ctx, func(db execer) error {
		for _, sc := range schedules {
			if err := upsertSchedule(ctx, db, sc); err != nil {
				return err
			}
		}
		return nil
	})
}

func upsertSchedule(ctx context.Context, db execer, sc engine.RecurringSchedule) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO recurring_schedules
		(id, name, amount, start_date, end_date, period, target_account_id, source_account_id,
		 include_in_statistics, category_id, scenario_id, is_simulated, tags_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name=excluded.name, amount=excluded.amount, start_date=excluded.start_date,
			end_date=excluded.end_date, period=excluded.period,
			target_account_id=excluded.target_account_id, source_account_id=excluded.source_account_id,
			include_in_statistics=excluded.include_in_statistics, category_id=excluded.category_id,
			scenario_id=excluded.scenario_id, is_simulated=excluded.is_simulated, tags_json=excluded.tags_json`,
		sc.ID, sc.Name, sc.Amount.Value.String(), formatDate(sc.StartDate), nullableDate(sc.EndDate),
		sc.Period, sc.TargetAccountID, accountRefString(sc.SourceAccountID),
		boolToInt(sc.IncludeInStatistics), categoryRefString(sc.CategoryID), scenarioRefString(sc.ScenarioID),
		boolToInt(sc.IsSimulated), encodeTags(sc.Tags))
	if err != nil {
		return fmt.Errorf("sqlite: save schedule %s: %w", sc.ID, err)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func accountRefString(id *engine.AccountID) sql.NullString {
	if id == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: string(*id), Valid: true}
}

func categoryRefString(id *engine.CategoryID) sql.NullString {
	if id == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: string(*id), Valid: true}
}

func scenarioRefString(id *engine.ScenarioID) sql.NullString {
	if id == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: string(*id), Valid: true}
}

// ---- incomes ----------------------------------------------------------

func (s *Store) LoadIncomes(ctx context.Context, scope store.Scope, view engine.ScenarioView) ([]engine.RecurringIncome, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, amount, start_date, end_date, period, target_account_id,
		       source_name, include_in_statistics, category_id, scenario_id, is_simulated, tags_json
		FROM recurring_incomes`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: load incomes: %w", err)
	}
	defer rows.Close()

	var all []engine.RecurringIncome
	for rows.Next() {
		inc, err := scanIncome(rows)
		if err != nil {
			return nil, err
		}
		if scopeMatches(scope, inc.TargetAccountID) {
			all = append(all, inc)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return view.FilterIncomes(all), nil
}

func scanIncome(rows *sql.Rows) (engine.RecurringIncome, error) {
	var inc engine.RecurringIncome
	var amount, start string
	var end, sourceName, categoryID, scenarioID sql.NullString
	var includeStats, isSimulated int
	var tagsJSON string

	if err := rows.Scan(&inc.ID, &inc.Name, &amount, &start, &end, &inc.Period, &inc.TargetAccountID,
		&sourceName, &includeStats, &categoryID, &scenarioID, &isSimulated, &tagsJSON); err != nil {
		return engine.RecurringIncome{}, fmt.Errorf("sqlite: scan income: %w", err)
	}

	amt, err := engine.ParseAmount(amount)
	if err != nil {
		return engine.RecurringIncome{}, fmt.Errorf("sqlite: income %s amount: %w", inc.ID, err)
	}
	inc.Amount = amt

	startDate, err := parseDateColumn(start)
	if err != nil {
		return engine.RecurringIncome{}, fmt.Errorf("sqlite: income %s start_date: %w", inc.ID, err)
	}
	inc.StartDate = startDate

	if end.Valid {
		endDate, err := parseDateColumn(end.String)
		if err != nil {
			return engine.RecurringIncome{}, fmt.Errorf("sqlite: income %s end_date: %w", inc.ID, err)
		}
		inc.EndDate = &endDate
	}
	if sourceName.Valid {
		name := sourceName.String
		inc.SourceName = &name
	}
	if categoryID.Valid {
		id := engine.CategoryID(categoryID.String)
		inc.CategoryID = &id
	}
	if scenarioID.Valid {
		id := engine.ScenarioID(scenarioID.String)
		inc.ScenarioID = &id
	}
	inc.IncludeInStatistics = includeStats != 0
	inc.IsSimulated = isSimulated != 0
	inc.Tags = decodeTags(tagsJSON)
	return inc, nil
}

func (s *Store) SaveIncomes(ctx context.Context, incomes []engine.RecurringIncome) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.withTxDB(ctx, func(db execer) error {
		for _, inc := range incomes {
			if err := upsertIncome(ctx, db, inc); err != nil {
				return err
			}
		}
		return nil
	})
}

func upsertIncome(ctx context.Context, db execer, inc engine.RecurringIncome) error {
	var sourceName sql.NullString
	if inc.SourceName != nil {
		sourceName = sql.NullString{String: *inc.SourceName, Valid: true}
	}
	_, err := db.ExecContext(ctx, `
		INSERT INTO recurring_incomes
		(id, name, amount, start_date, end_date, period, target_account_id, source_name,
		 include_in_statistics, category_id, scenario_id, is_simulated, tags_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name=excluded.name, amount=excluded.amount, start_date=excluded.start_date,
			end_date=excluded.end_date, period=excluded.period,
			target_account_id=excluded.target_account_id, source_name=excluded.source_name,
			include_in_statistics=excluded.include_in_statistics, category_id=excluded.category_id,
			scenario_id=excluded.scenario_id, is_simulated=excluded.is_simulated, tags_json=excluded.tags_json`,
		inc.ID, inc.Name, inc.Amount.Value.String(), formatDate(inc.StartDate), nullableDate(inc.EndDate),
		inc.Period, inc.TargetAccountID, sourceName,
		boolToInt(inc.IncludeInStatistics), categoryRefString(inc.CategoryID), scenarioRefString(inc.ScenarioID),
		boolToInt(inc.IsSimulated), encodeTags(inc.Tags))
	if err != nil {
		return fmt.Errorf("sqlite: save income %s: %w", inc.ID, err)
	}
	return nil
}

// ---- instances ----------------------------------------------------------

func (s *Store) LoadInstances(ctx context.Context, scheduleIDs []engine.ScheduleID, w engine.Window) ([]engine.RecurringInstance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(scheduleIDs) == 0 {
		return nil, nil
	}

	query := `
		SELECT id, schedule_id, status, due_date, expected_amount, paid_date, paid_amount,
		       reconciled_import_id, category_id, tags_json
		FROM recurring_instances
		WHERE schedule_id IN (` + placeholders(len(scheduleIDs)) + `)
		  AND (due_date BETWEEN ? AND ? OR (paid_date IS NOT NULL AND paid_date BETWEEN ? AND ?))`
	args := make([]any, 0, len(scheduleIDs)+4)
	for _, id := range scheduleIDs {
		args = append(args, string(id))
	}
	start, end := formatDate(w.Start), formatDate(w.End)
	args = append(args, start, end, start, end)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: load instances: %w", err)
	}
	defer rows.Close()

	var out []engine.RecurringInstance
	for rows.Next() {
		inst, err := scanInstance(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, inst)
	}
	return out, rows.Err()
}

func scanInstance(rows *sql.Rows) (engine.RecurringInstance, error) {
	var i engine.RecurringInstance
	var due, expected string
	var paidDate, paidAmount, reconciledImport, categoryID sql.NullString
	var tagsJSON string

	if err := rows.Scan(&i.ID, &i.ScheduleID, &i.Status, &due, &expected, &paidDate, &paidAmount,
		&reconciledImport, &categoryID, &tagsJSON); err != nil {
		return engine.RecurringInstance{}, fmt.Errorf("sqlite: scan instance: %w", err)
	}

	dueDate, err := parseDateColumn(due)
	if err != nil {
		return engine.RecurringInstance{}, fmt.Errorf("sqlite: instance %s due_date: %w", i.ID, err)
	}
	i.DueDate = dueDate

	amt, err := engine.ParseAmount(expected)
	if err != nil {
		return engine.RecurringInstance{}, fmt.Errorf("sqlite: instance %s expected_amount: %w", i.ID, err)
	}
	i.ExpectedAmount = amt

	if paidDate.Valid {
		d, err := parseDateColumn(paidDate.String)
		if err != nil {
			return engine.RecurringInstance{}, fmt.Errorf("sqlite: instance %s paid_date: %w", i.ID, err)
		}
		i.PaidDate = &d
	}
	if paidAmount.Valid {
		a, err := engine.ParseAmount(paidAmount.String)
		if err != nil {
			return engine.RecurringInstance{}, fmt.Errorf("sqlite: instance %s paid_amount: %w", i.ID, err)
		}
		i.PaidAmount = &a
	}
	if reconciledImport.Valid {
		id := engine.ImportID(reconciledImport.String)
		i.ReconciledImportedTransactionID = &id
	}
	if categoryID.Valid {
		id := engine.CategoryID(categoryID.String)
		i.CategoryID = &id
	}
	i.Tags = decodeTags(tagsJSON)
	return i, nil
}

func (s *Store) SaveInstance(ctx context.Context, instance engine.RecurringInstance) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return saveInstance(ctx, s.db, instance)
}

func saveInstance(ctx context.Context, db execer, i engine.RecurringInstance) error {
	var reconciledImport sql.NullString
	if i.ReconciledImportedTransactionID != nil {
		reconciledImport = sql.NullString{String: string(*i.ReconciledImportedTransactionID), Valid: true}
	}
	_, err := db.ExecContext(ctx, `
		INSERT INTO recurring_instances
		(id, schedule_id, status, due_date, expected_amount, paid_date, paid_amount,
		 reconciled_import_id, category_id, tags_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status=excluded.status, due_date=excluded.due_date, expected_amount=excluded.expected_amount,
			paid_date=excluded.paid_date, paid_amount=excluded.paid_amount,
			reconciled_import_id=excluded.reconciled_import_id, category_id=excluded.category_id,
			tags_json=excluded.tags_json`,
		i.ID, i.ScheduleID, i.Status, formatDate(i.DueDate), i.ExpectedAmount.Value.String(),
		nullableDate(i.PaidDate), nullableAmount(i.PaidAmount), reconciledImport,
		categoryRefString(i.CategoryID), encodeTags(i.Tags))
	if err != nil {
		return fmt.Errorf("sqlite: save instance %s: %w", i.ID, err)
	}
	return nil
}

// ---- one-offs ----------------------------------------------------------

func (s *Store) LoadOneOffs(ctx context.Context, scope store.Scope, w engine.Window, view engine.ScenarioView) ([]engine.OneOffTransaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, amount, date, target_account_id, source_account_id, include_in_statistics,
		       category_id, scenario_id, is_simulated, reconciled_schedule_id, linked_import_id
		FROM one_off_transactions
		WHERE date BETWEEN ? AND ?`, formatDate(w.Start), formatDate(w.End))
	if err != nil {
		return nil, fmt.Errorf("sqlite: load one-offs: %w", err)
	}
	defer rows.Close()

	var all []engine.OneOffTransaction
	for rows.Next() {
		oo, err := scanOneOff(rows)
		if err != nil {
			return nil, err
		}
		if scopeMatches(scope, oo.TargetAccountID) {
			all = append(all, oo)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return view.FilterOneOffs(all), nil
}

func scanOneOff(rows *sql.Rows) (engine.OneOffTransaction, error) {
	var oo engine.OneOffTransaction
	var amount, when string
	var sourceAccount, categoryID, scenarioID, reconciledSchedule, linkedImport sql.NullString
	var includeStats, isSimulated int

	if err := rows.Scan(&oo.ID, &oo.Name, &amount, &when, &oo.TargetAccountID, &sourceAccount,
		&includeStats, &categoryID, &scenarioID, &isSimulated, &reconciledSchedule, &linkedImport); err != nil {
		return engine.OneOffTransaction{}, fmt.Errorf("sqlite: scan one-off: %w", err)
	}

	amt, err := engine.ParseAmount(amount)
	if err != nil {
		return engine.OneOffTransaction{}, fmt.Errorf("sqlite: one-off %s amount: %w", oo.ID, err)
	}
	oo.Amount = amt

	date, err := parseDateColumn(when)
	if err != nil {
		return engine.OneOffTransaction{}, fmt.Errorf("sqlite: one-off %s date: %w", oo.ID, err)
	}
	oo.Date = date

	if sourceAccount.Valid {
		id := engine.AccountID(sourceAccount.String)
		oo.SourceAccountID = &id
	}
	if categoryID.Valid {
		id := engine.CategoryID(categoryID.String)
		oo.CategoryID = &id
	}
	if scenarioID.Valid {
		id := engine.ScenarioID(scenarioID.String)
		oo.ScenarioID = &id
	}
	if reconciledSchedule.Valid {
		id := engine.ScheduleID(reconciledSchedule.String)
		oo.ReconciledRecurringScheduleID = &id
	}
	if linkedImport.Valid {
		id := engine.ImportID(linkedImport.String)
		oo.LinkedImportID = &id
	}
	oo.IncludeInStatistics = includeStats != 0
	oo.IsSimulated = isSimulated != 0
	return oo, nil
}

func (s *Store) SaveOneOffs(ctx context.Context, oneOffs []engine.OneOffTransaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.withTxDB(ctx, func(db execer) error {
		for _, oo := range oneOffs {
			if err := upsertOneOff(ctx, db, oo); err != nil {
				return err
			}
		}
		return nil
	})
}

func upsertOneOff(ctx context.Context, db execer, oo engine.OneOffTransaction) error {
	var reconciledSchedule, linkedImport sql.NullString
	if oo.ReconciledRecurringScheduleID != nil {
		reconciledSchedule = sql.NullString{String: string(*oo.ReconciledRecurringScheduleID), Valid: true}
	}
	if oo.LinkedImportID != nil {
		linkedImport = sql.NullString{String: string(*oo.LinkedImportID), Valid: true}
	}
	_, err := db.ExecContext(ctx, `
		INSERT INTO one_off_transactions
		(id, name, amount, date, target_account_id, source_account_id, include_in_statistics,
		 category_id, scenario_id, is_simulated, reconciled_schedule_id, linked_import_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name=excluded.name, amount=excluded.amount, date=excluded.date,
			target_account_id=excluded.target_account_id, source_account_id=excluded.source_account_id,
			include_in_statistics=excluded.include_in_statistics, category_id=excluded.category_id,
			scenario_id=excluded.scenario_id, is_simulated=excluded.is_simulated,
			reconciled_schedule_id=excluded.reconciled_schedule_id, linked_import_id=excluded.linked_import_id`,
		oo.ID, oo.Name, oo.Amount.Value.String(), formatDate(oo.Date), oo.TargetAccountID,
		accountRefString(oo.SourceAccountID), boolToInt(oo.IncludeInStatistics), categoryRefString(oo.CategoryID),
		scenarioRefString(oo.ScenarioID), boolToInt(oo.IsSimulated), reconciledSchedule, linkedImport)
	if err != nil {
		return fmt.Errorf("sqlite: save one-off %s: %w", oo.ID, err)
	}
	return nil
}

// ---- manual account states ----------------------------------------------

func (s *Store) LoadManualStates(ctx context.Context, accountIDs []engine.AccountID) ([]engine.ManualAccountState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(accountIDs) == 0 {
		return nil, nil
	}

	args := make([]any, len(accountIDs))
	for i, id := range accountIDs {
		args[i] = string(id)
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, account_id, date, amount FROM manual_account_states
		WHERE account_id IN (`+placeholders(len(accountIDs))+`)`, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: load manual states: %w", err)
	}
	defer rows.Close()

	var out []engine.ManualAccountState
	for rows.Next() {
		var m engine.ManualAccountState
		var when, amount string
		if err := rows.Scan(&m.ID, &m.AccountID, &when, &amount); err != nil {
			return nil, fmt.Errorf("sqlite: scan manual state: %w", err)
		}
		date, err := parseDateColumn(when)
		if err != nil {
			return nil, fmt.Errorf("sqlite: manual state %s date: %w", m.ID, err)
		}
		m.Date = date
		amt, err := engine.ParseAmount(amount)
		if err != nil {
			return nil, fmt.Errorf("sqlite: manual state %s amount: %w", m.ID, err)
		}
		m.Amount = amt
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *Store) SaveManualState(ctx context.Context, state engine.ManualAccountState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO manual_account_states (id, account_id, date, amount)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET account_id=excluded.account_id, date=excluded.date, amount=excluded.amount`,
		state.ID, state.AccountID, formatDate(state.Date), state.Amount.Value.String())
	if err != nil {
		return fmt.Errorf("sqlite: save manual state %s: %w", state.ID, err)
	}
	return nil
}

// ---- imported transactions / reconciliation -----------------------------

func (s *Store) LoadImportedTransactions(ctx context.Context, accountIDs []engine.AccountID, w engine.Window) ([]engine.ImportedTransaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(accountIDs) == 0 {
		return nil, nil
	}

	args := make([]any, 0, len(accountIDs)+2)
	for _, id := range accountIDs {
		args = append(args, string(id))
	}
	args = append(args, formatDate(w.Start), formatDate(w.End))

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, account_id, date, description, amount, import_hash, reconciled_kind, reconciled_id
		FROM imported_transactions
		WHERE account_id IN (`+placeholders(len(accountIDs))+`) AND date BETWEEN ? AND ?`, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: load imported transactions: %w", err)
	}
	defer rows.Close()

	var out []engine.ImportedTransaction
	for rows.Next() {
		imp, err := scanImportedTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, imp)
	}
	return out, rows.Err()
}

func scanImportedTransaction(rows *sql.Rows) (engine.ImportedTransaction, error) {
	var imp engine.ImportedTransaction
	var when, amount string
	var reconciledKind, reconciledID sql.NullString

	if err := rows.Scan(&imp.ID, &imp.AccountID, &when, &imp.Description, &amount, &imp.ImportHash,
		&reconciledKind, &reconciledID); err != nil {
		return engine.ImportedTransaction{}, fmt.Errorf("sqlite: scan imported transaction: %w", err)
	}

	date, err := parseDateColumn(when)
	if err != nil {
		return engine.ImportedTransaction{}, fmt.Errorf("sqlite: imported transaction %s date: %w", imp.ID, err)
	}
	imp.Date = date

	amt, err := engine.ParseAmount(amount)
	if err != nil {
		return engine.ImportedTransaction{}, fmt.Errorf("sqlite: imported transaction %s amount: %w", imp.ID, err)
	}
	imp.Amount = amt

	if reconciledKind.Valid && reconciledID.Valid {
		imp.Reconciled = &engine.ReconciliationLink{
			Kind: engine.ReconciledKind(reconciledKind.String),
			ID:   reconciledID.String,
		}
	} else if reconciledKind.Valid != reconciledID.Valid {
		return engine.ImportedTransaction{}, engine.NewInvariantError("ImportedTransaction", string(imp.ID), "one of two reconciliation link fields set")
	}
	return imp, nil
}

func (s *Store) PersistReconciliation(ctx context.Context, importID engine.ImportID, link *engine.ReconciliationLink) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var kind, id sql.NullString
	if link != nil {
		kind = sql.NullString{String: string(link.Kind), Valid: true}
		id = sql.NullString{String: link.ID, Valid: true}
	}
	res, err := s.db.ExecContext(ctx,
		"UPDATE imported_transactions SET reconciled_kind = ?, reconciled_id = ? WHERE id = ?",
		kind, id, importID)
	if err != nil {
		return fmt.Errorf("sqlite: persist reconciliation for %s: %w", importID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: persist reconciliation for %s: %w", importID, err)
	}
	if n == 0 {
		return engine.NewNotFoundError("ImportedTransaction", string(importID))
	}
	return nil
}

// ---- tags / scenarios ----------------------------------------------------

func (s *Store) LoadTags(ctx context.Context) (engine.TagSet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, "SELECT id, name, parent_id, description FROM tags")
	if err != nil {
		return nil, fmt.Errorf("sqlite: load tags: %w", err)
	}
	defer rows.Close()

	out := make(engine.TagSet)
	for rows.Next() {
		var t engine.Tag
		var parentID, description sql.NullString
		if err := rows.Scan(&t.ID, &t.Name, &parentID, &description); err != nil {
			return nil, fmt.Errorf("sqlite: scan tag: %w", err)
		}
		if parentID.Valid {
			pid := engine.TagID(parentID.String)
			t.ParentID = &pid
		}
		t.Description = description.String
		out[t.ID] = t
	}
	return out, rows.Err()
}

func (s *Store) LoadScenarios(ctx context.Context) ([]engine.Scenario, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, "SELECT id, name, created_at, is_active FROM scenarios")
	if err != nil {
		return nil, fmt.Errorf("sqlite: load scenarios: %w", err)
	}
	defer rows.Close()

	var out []engine.Scenario
	for rows.Next() {
		var sc engine.Scenario
		var createdAt string
		var isActive int
		if err := rows.Scan(&sc.ID, &sc.Name, &createdAt, &isActive); err != nil {
			return nil, fmt.Errorf("sqlite: scan scenario: %w", err)
		}
		d, err := parseDateColumn(createdAt)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scenario %s created_at: %w", sc.ID, err)
		}
		sc.CreatedAt = d
		sc.IsActive = isActive != 0
		out = append(out, sc)
	}
	return out, rows.Err()
}

// SaveTags and SaveScenarios sit outside the Writer contract for the same
// reason SaveAccounts does: provisioning the tag tree and naming a
// scenario are administrative acts that happen before any projection
// runs, not mutations finance drives on the engine's behalf.
func (s *Store) SaveTags(ctx context.Context, tags engine.TagSet) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.withTxDB(ctx, func(db execer) error {
		for _, t := range tags {
			_, err := db.ExecContext(ctx, `
				INSERT INTO tags (id, name, parent_id, description)
				VALUES (?, ?, ?, ?)
				ON CONFLICT(id) DO UPDATE SET
					name=excluded.name, parent_id=excluded.parent_id, description=excluded.description`,
				t.ID, t.Name, nullableTagID(t.ParentID), t.Description)
			if err != nil {
				return fmt.Errorf("sqlite: save tag %s: %w", t.ID, err)
			}
		}
		return nil
	})
}

func (s *Store) SaveScenarios(ctx context.Context, scenarios []engine.Scenario) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.withTxDB(ctx, func(db execer) error {
		for _, sc := range scenarios {
			_, err := db.ExecContext(ctx, `
				INSERT INTO scenarios (id, name, created_at, is_active)
				VALUES (?, ?, ?, ?)
				ON CONFLICT(id) DO UPDATE SET
					name=excluded.name, created_at=excluded.created_at, is_active=excluded.is_active`,
				sc.ID, sc.Name, formatDate(sc.CreatedAt), boolToInt(sc.IsActive))
			if err != nil {
				return fmt.Errorf("sqlite: save scenario %s: %w", sc.ID, err)
			}
		}
		return nil
	})
}

// ---- transactional boundary ----------------------------------------------

// execer is the subset of *sql.DB / *sql.Tx the upsert helpers need,
// letting WithTx reuse them against a transaction instead of the pool.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *Store) withTxDB(ctx context.Context, fn func(execer) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: begin: %w", err)
	}
	defer tx.Rollback()
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

// WithTx runs fn against a single SQL transaction; every Save* call fn
// makes through the returned store.Store either all commit or all
// roll back. finance.ScenarioApplier.Apply uses it when available.
func (s *Store) WithTx(ctx context.Context, fn func(store.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: begin: %w", err)
	}
	defer sqlTx.Rollback()

	view := &txView{db: sqlTx, parent: s}
	if err := fn(view); err != nil {
		return err
	}
	return sqlTx.Commit()
}

// txView is a store.Store whose writes go through the open transaction
// and whose reads fall back to the parent's read methods (SQLite's own
// locking makes reading through the same transaction unnecessary here).
type txView struct {
	db     *sql.Tx
	parent *Store
}

func (v *txView) LoadAccounts(ctx context.Context, scope store.Scope) ([]engine.Account, error) {
	return v.parent.LoadAccounts(ctx, scope)
}
func (v *txView) LoadSchedules(ctx context.Context, scope store.Scope, view engine.ScenarioView) ([]engine.RecurringSchedule, error) {
	return v.parent.LoadSchedules(ctx, scope, view)
}
func (v *txView) LoadIncomes(ctx context.Context, scope store.Scope, view engine.ScenarioView) ([]engine.RecurringIncome, error) {
	return v.parent.LoadIncomes(ctx, scope, view)
}
func (v *txView) LoadInstances(ctx context.Context, scheduleIDs []engine.ScheduleID, w engine.Window) ([]engine.RecurringInstance, error) {
	return v.parent.LoadInstances(ctx, scheduleIDs, w)
}
func (v *txView) LoadOneOffs(ctx context.Context, scope store.Scope, w engine.Window, view engine.ScenarioView) ([]engine.OneOffTransaction, error) {
	return v.parent.LoadOneOffs(ctx, scope, w, view)
}
func (v *txView) LoadManualStates(ctx context.Context, accountIDs []engine.AccountID) ([]engine.ManualAccountState, error) {
	return v.parent.LoadManualStates(ctx, accountIDs)
}
func (v *txView) LoadImportedTransactions(ctx context.Context, accountIDs []engine.AccountID, w engine.Window) ([]engine.ImportedTransaction, error) {
	return v.parent.LoadImportedTransactions(ctx, accountIDs, w)
}
func (v *txView) LoadTags(ctx context.Context) (engine.TagSet, error) { return v.parent.LoadTags(ctx) }
func (v *txView) LoadScenarios(ctx context.Context) ([]engine.Scenario, error) {
	return v.parent.LoadScenarios(ctx)
}
func (v *txView) PersistReconciliation(ctx context.Context, importID engine.ImportID, link *engine.ReconciliationLink) error {
	var kind, id sql.NullString
	if link != nil {
		kind = sql.NullString{String: string(link.Kind), Valid: true}
		id = sql.NullString{String: link.ID, Valid: true}
	}
	_, err := v.db.ExecContext(ctx, "UPDATE imported_transactions SET reconciled_kind = ?, reconciled_id = ? WHERE id = ?", kind, id, importID)
	return err
}
func (v *txView) SaveInstance(ctx context.Context, instance engine.RecurringInstance) error {
	return saveInstance(ctx, v.db, instance)
}
func (v *txView) SaveManualState(ctx context.Context, state engine.ManualAccountState) error {
	_, err := v.db.ExecContext(ctx, `
		INSERT INTO manual_account_states (id, account_id, date, amount) VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET account_id=excluded.account_id, date=excluded.date, amount=excluded.amount`,
		state.ID, state.AccountID, formatDate(state.Date), state.Amount.Value.String())
	return err
}
func (v *txView) SaveSchedules(ctx context.Context, schedules []engine.RecurringSchedule) error {
	for _, sc := range schedules {
		if err := upsertSchedule(ctx, v.db, sc); err != nil {
			return err
		}
	}
	return nil
}
func (v *txView) SaveIncomes(ctx context.Context, incomes []engine.RecurringIncome) error {
	for _, inc := range incomes {
		if err := upsertIncome(ctx, v.db, inc); err != nil {
			return err
		}
	}
	return nil
}
func (v *txView) SaveOneOffs(ctx context.Context, oneOffs []engine.OneOffTransaction) error {
	for _, oo := range oneOffs {
		if err := upsertOneOff(ctx, v.db, oo); err != nil {
			return err
		}
	}
	return nil
}
