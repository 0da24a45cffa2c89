package repositories

import "gorm.io/gorm"

// Store bundles the repositories and lets services run multi-repository
// mutations atomically. InTransaction hands the callback a Store whose
// repositories are bound to the same database transaction; returning an
// error rolls everything back.
type Store interface {
	Products() ProductRepository
	Carts() CartRepository
	Orders() OrderRepository
	Deliveries() DeliveryRepository
	SpotModes() SpotModeRepository
	Users() UserRepository
	InTransaction(fn func(Store) error) error
}

// GormStore is the GORM implementation of Store.
type GormStore struct {
	db         *gorm.DB
	products   *GORMProductRepository
	carts      *GORMCartRepository
	orders     *GORMOrderRepository
	deliveries *GORMDeliveryRepository
	spotModes  *GORMSpotModeRepository
	users      *GORMUserRepository
}

// NewGormStore creates a Store backed by the given database handle.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{
		db:         db,
		products:   NewGORMProductRepository(db),
		carts:      NewGORMCartRepository(db),
		orders:     NewGORMOrderRepository(db),
		deliveries: NewGORMDeliveryRepository(db),
		spotModes:  NewGORMSpotModeRepository(db),
		users:      NewGORMUserRepository(db),
	}
}

func (s *GormStore) Products() ProductRepository     { return s.products }
func (s *GormStore) Carts() CartRepository           { return s.carts }
func (s *GormStore) Orders() OrderRepository         { return s.orders }
func (s *GormStore) Deliveries() DeliveryRepository  { return s.deliveries }
func (s *GormStore) SpotModes() SpotModeRepository   { return s.spotModes }
func (s *GormStore) Users() UserRepository           { return s.users }

// InTransaction runs fn inside a database transaction. Nested calls reuse
// the enclosing transaction, which GORM maps to a savepoint.
func (s *GormStore) InTransaction(fn func(Store) error) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		return fn(NewGormStore(tx))
	})
}
