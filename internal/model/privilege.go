package model

// Privilege represents a permission that can be assigned to users
type Privilege struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Code string `gorm:"type:varchar(50);uniqueIndex;not null" json:"code"` // e.g., "product:create"
	Name string `gorm:"type:varchar(100)" json:"name"`                     // e.g., "Create Product"
}

// Default privileges for the system
var DefaultPrivileges = []Privilege{
	// User management
	{Code: "user:view", Name: "View User"},
	{Code: "user:create", Name: "Create User"},
	{Code: "user:update", Name: "Update User"},
	{Code: "user:delete", Name: "Delete User"},
	// Product & category management
	{Code: "product:view", Name: "View Product"},
	{Code: "product:create", Name: "Create Product"},
	{Code: "product:update", Name: "Update Product"},
	{Code: "product:delete", Name: "Delete Product"},
	{Code: "category:manage", Name: "Manage Categories"},
	// Discount management
	{Code: "discount:view", Name: "View Discount"},
	{Code: "discount:manage", Name: "Manage Discounts"},
	// Transactions (point of sale)
	{Code: "transaction:view", Name: "View Transaction"},
	{Code: "transaction:create", Name: "Create Transaction"},
	{Code: "transaction:complete", Name: "Complete Transaction Payment"},
	// Reporting
	{Code: "report:view", Name: "View Reports"},
}

// CashierPrivilegeCodes is the subset granted to the CASHIER role.
var CashierPrivilegeCodes = []string{
	"product:view",
	"transaction:view",
	"transaction:create",
	"transaction:complete",
}
