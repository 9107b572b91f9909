package record

// Role selects which console variant is running and therefore which
// collections sync and how they are identity-scoped.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleEmployee Role = "employee"
	RoleCustomer Role = "customer"
)

// Collection names.
const (
	CollectionProducts   = "products"
	CollectionAreas      = "areas"
	CollectionCustomers  = "customers"
	CollectionEmployees  = "employees"
	CollectionOrders     = "orders"
	CollectionCredits    = "credits"
	CollectionAttendance = "attendance"
	CollectionDeliveries = "deliveries"
	CollectionAdvances   = "advances"
)

// CollectionSpec describes one collection's sync behavior.
type CollectionSpec struct {
	Name string

	// OwnerField names the payload field holding the owning identity for
	// identity-scoped collections. Empty for tenant-global collections.
	OwnerField string
}

// Scoped reports whether the collection is identity-scoped.
func (c CollectionSpec) Scoped() bool { return c.OwnerField != "" }

var (
	products   = CollectionSpec{Name: CollectionProducts}
	areas      = CollectionSpec{Name: CollectionAreas}
	customers  = CollectionSpec{Name: CollectionCustomers}
	employees  = CollectionSpec{Name: CollectionEmployees}
	orders     = CollectionSpec{Name: CollectionOrders, OwnerField: "customerId"}
	credits    = CollectionSpec{Name: CollectionCredits, OwnerField: "customerId"}
	attendance = CollectionSpec{Name: CollectionAttendance, OwnerField: "employeeId"}
	deliveries = CollectionSpec{Name: CollectionDeliveries, OwnerField: "employeeId"}
	advances   = CollectionSpec{Name: CollectionAdvances, OwnerField: "employeeId"}
)

// CollectionsFor returns the sync set for a console role.
//
// The admin console is the privileged variant: it syncs every collection,
// including identity-scoped ones in full (no owner filter, no purge pass).
// Employee and customer consoles sync the shared catalog collections plus
// their own identity-scoped rows.
func CollectionsFor(role Role) []CollectionSpec {
	switch role {
	case RoleEmployee:
		return []CollectionSpec{products, areas, customers, attendance, deliveries, advances}
	case RoleCustomer:
		return []CollectionSpec{products, areas, orders, credits}
	default:
		return []CollectionSpec{products, areas, customers, employees, orders, credits, attendance, deliveries, advances}
	}
}
