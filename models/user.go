package models

// Roles are owned by the external auth system; the messaging core only
// reads them off the verified token.
const (
	RoleDonor    = "donor"
	RoleHospital = "hospital"
	RoleStaff    = "staff"
	RoleAdmin    = "admin"
)

type User struct {
	ID        string `bson:"_id" json:"id"`
	Name      string `bson:"name" json:"name"`
	Email     string `bson:"email" json:"email"`
	Role      string `bson:"role" json:"role"`
	Hospital  string `bson:"hospital,omitempty" json:"hospital,omitempty"`
	BloodType string `bson:"bloodType,omitempty" json:"bloodType,omitempty"`
	Avatar    string `bson:"avatar,omitempty" json:"avatar,omitempty"`
}
