package services

type Role string

const (
	RoleAdmin   Role = "admin"
	RoleCashier Role = "cashier"
	RoleWaiter  Role = "waiter"
	RoleCook    Role = "cook"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleCashier, RoleWaiter, RoleCook:
		return true
	}
	return false
}

// Actor is the verified identity handed over by the identity provider.
type Actor struct {
	UserID uint
	Role   Role
}

type Capability string

const (
	CapCreateOrder      Capability = "order.create"
	CapAddItems         Capability = "order.add_items"
	CapSendToKitchen    Capability = "order.send_to_kitchen"
	CapUpdateItemStatus Capability = "order.item_status"
	CapDeliverItem      Capability = "order.item_delivered"
	CapCancelItem       Capability = "order.cancel_item"
	CapTransferOrder    Capability = "order.transfer"
	CapCancelOrder      Capability = "order.cancel"
	CapViewOrders       Capability = "order.view"
	CapPrintTickets     Capability = "order.print"
	CapProcessPayment   Capability = "payment.process"
	CapCloseTable       Capability = "table.close"
	CapReserveTable     Capability = "table.reserve"
	CapManageTables     Capability = "table.manage"
	CapOpenShift        Capability = "shift.open"
	CapCloseShift       Capability = "shift.close"
	CapViewShifts       Capability = "shift.view"
	CapManageCatalog    Capability = "catalog.manage"
	CapManageSettings   Capability = "settings.manage"
	CapViewReports      Capability = "reports.view"
)

var (
	floorStaff = []Role{RoleAdmin, RoleCashier, RoleWaiter}
	cashDesk   = []Role{RoleAdmin, RoleCashier}
	adminOnly  = []Role{RoleAdmin}
	everyone   = []Role{RoleAdmin, RoleCashier, RoleWaiter, RoleCook}
)

var capabilities = map[Capability][]Role{
	CapCreateOrder:      floorStaff,
	CapAddItems:         floorStaff,
	CapSendToKitchen:    floorStaff,
	CapUpdateItemStatus: {RoleAdmin, RoleCook},
	CapDeliverItem:      floorStaff,
	CapCancelItem:       floorStaff,
	CapTransferOrder:    floorStaff,
	CapCancelOrder:      cashDesk,
	CapViewOrders:       everyone,
	CapPrintTickets:     floorStaff,
	CapProcessPayment:   cashDesk,
	CapCloseTable:       floorStaff,
	CapReserveTable:     floorStaff,
	CapManageTables:     adminOnly,
	CapOpenShift:        cashDesk,
	CapCloseShift:       cashDesk,
	CapViewShifts:       cashDesk,
	CapManageCatalog:    adminOnly,
	CapManageSettings:   adminOnly,
	CapViewReports:      cashDesk,
}

// Authorize checks the actor's role against the capability table.
func Authorize(actor Actor, capability Capability) error {
	if !actor.Role.Valid() {
		return newError(KindForbidden, "unknown role %q", actor.Role)
	}
	for _, r := range capabilities[capability] {
		if r == actor.Role {
			return nil
		}
	}
	return newError(KindForbidden, "role %s may not perform %s", actor.Role, capability)
}

// RolesFor returns a copy of the roles holding a capability.
func RolesFor(capability Capability) []Role {
	roles := capabilities[capability]
	out := make([]Role, len(roles))
	copy(out, roles)
	return out
}
