package identity

import "time"

// Role es inmutable una vez creado el usuario.
type Role string

const (
	RolePatient  Role = "patient"
	RoleDoctor   Role = "doctor"
	RolePharmacy Role = "pharmacy"
	RoleAdmin    Role = "admin"
	RoleAuditor  Role = "auditor"
)

// Roles lista todas las variantes conocidas.
var Roles = []Role{RolePatient, RoleDoctor, RolePharmacy, RoleAdmin, RoleAuditor}

func ParseRole(s string) (Role, bool) {
	for _, r := range Roles {
		if string(r) == s {
			return r, true
		}
	}
	return "", false
}

type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
)

type User struct {
	ID   string
	Name string
	Role Role

	Email       string
	PhoneNumber string
	NationalID  string

	// Doctor
	Specialization string
	Hospital       string

	// Doctor / Pharmacy
	LicenseNumber string

	// Pharmacy
	Address       string
	ContactPerson string

	// Admin / Auditor
	Department  string
	AccessLevel int

	CreatedAt time.Time
}

type Patient struct {
	User

	DateOfBirth       time.Time
	Gender            Gender
	BloodGroup        string
	EmergencyContact  string
	Allergies         []string
	ChronicConditions []string

	// HealthCardID es único e inmutable.
	HealthCardID string
}
