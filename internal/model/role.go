package model

import "time"

// Permission names. Each maps to a boolean column on the roles table and
// gates one privileged operation.
const (
	PermViewProducts  = "view_products"
	PermCreateProduct = "create_product"
	PermUpdateProduct = "update_product"
	PermDeleteProduct = "delete_product"
	PermUpdateImage   = "update_image"
	PermSetBestseller = "set_bestseller"
	PermManageAPIKeys = "manage_api_keys"
)

// Role groups a set of named boolean permissions under a unique name. Users
// reference roles by name directly on their row; there is no join table, and
// roles are re-read from the store on every request.
type Role struct {
	Name          string    `json:"name" db:"name"`
	Description   string    `json:"description" db:"description"`
	ViewProducts  bool      `json:"view_products" db:"view_products"`
	CreateProduct bool      `json:"create_product" db:"create_product"`
	UpdateProduct bool      `json:"update_product" db:"update_product"`
	DeleteProduct bool      `json:"delete_product" db:"delete_product"`
	UpdateImage   bool      `json:"update_image" db:"update_image"`
	SetBestseller bool      `json:"set_bestseller" db:"set_bestseller"`
	ManageAPIKeys bool      `json:"manage_api_keys" db:"manage_api_keys"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}

// Permissions returns the role's flags as a name -> bool map.
func (r *Role) Permissions() map[string]bool {
	if r == nil {
		return map[string]bool{}
	}
	return map[string]bool{
		PermViewProducts:  r.ViewProducts,
		PermCreateProduct: r.CreateProduct,
		PermUpdateProduct: r.UpdateProduct,
		PermDeleteProduct: r.DeleteProduct,
		PermUpdateImage:   r.UpdateImage,
		PermSetBestseller: r.SetBestseller,
		PermManageAPIKeys: r.ManageAPIKeys,
	}
}

// Has reports whether the named permission is granted. A nil role or an
// unknown permission name is a denial.
func (r *Role) Has(name string) bool {
	if r == nil {
		return false
	}
	return r.Permissions()[name]
}
