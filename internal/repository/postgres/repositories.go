package postgres

import "github.com/jackc/pgx/v5/pgxpool"

// Repositories groups concrete PostgreSQL repository implementations.
type Repositories struct {
	Accounts *AccountRepository
	Audit    *AuditRepository
	Menu     *MenuRepository
	Orders   *OrderRepository
}

// NewRepositories wires all repositories backed by the provided pool.
func NewRepositories(pool *pgxpool.Pool) *Repositories {
	return &Repositories{
		Accounts: NewAccountRepository(pool),
		Audit:    NewAuditRepository(pool),
		Menu:     NewMenuRepository(pool),
		Orders:   NewOrderRepository(pool),
	}
}
