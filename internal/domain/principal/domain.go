package principal

import (
	"errors"
	"fmt"
	"strings"
)

var ErrUnsupportedRole = errors.New("unsupported role")

// Role is the closed set of principal kinds. Every role owns its own id and email namespace.
type Role int

const (
	RoleUnknown Role = iota
	RoleStudent
	RoleCompany
	RoleAdmin
)

var roleNames = map[Role]string{
	RoleStudent: "student",
	RoleCompany: "company",
	RoleAdmin:   "admin",
}

func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "student":
		return RoleStudent, nil
	case "company":
		return RoleCompany, nil
	case "admin":
		return RoleAdmin, nil
	default:
		return RoleUnknown, fmt.Errorf("%w: %q", ErrUnsupportedRole, s)
	}
}

func (r Role) String() string {
	if n, ok := roleNames[r]; ok {
		return n
	}
	return "unknown"
}

func (r Role) Valid() bool {
	_, ok := roleNames[r]
	return ok
}

// Credential is what a login needs from the store: the principal and its stored bcrypt hash.
type Credential struct {
	PrincipalID int64
	Role        Role
	Hash        string
}

// Registration is implemented only by the three variants below.
type Registration interface {
	Role() Role
	// RequestedID is the caller supplied id, zero when the store should generate one.
	RequestedID() int64
	ContactEmail() string
	Secret() string

	sealed()
}

type StudentRegistration struct {
	ID             int64   `json:"id" validate:"gte=0"`
	Name           string  `json:"name" validate:"required,max=100"`
	CGPA           float64 `json:"cgpa" validate:"gte=0,lte=10"`
	GraduationYear int     `json:"graduation_year" validate:"required,gte=1950,lte=2100"`
	Department     string  `json:"department" validate:"required,max=100"`
	Email          string  `json:"email" validate:"required,email,max=100"`
	PhoneNumber    string  `json:"phone_number" validate:"required,max=15"`
	Password       string  `json:"password" validate:"required,min=8,max=100,maxbytes=72"`
}

type CompanyRegistration struct {
	ID            int64  `json:"id" validate:"gte=0"`
	Name          string `json:"name" validate:"required,max=100"`
	IndustryType  string `json:"industry_type" validate:"required,max=100"`
	ContactPerson string `json:"contact_person" validate:"required,max=100"`
	Website       string `json:"website" validate:"omitempty,url,max=200"`
	Email         string `json:"email" validate:"required,email,max=100"`
	PhoneNo       string `json:"phone_no" validate:"required,max=15"`
	Location      string `json:"location" validate:"required,max=100"`
	Password      string `json:"password" validate:"required,min=8,max=100,maxbytes=72"`
}

type AdminRegistration struct {
	ID       int64  `json:"id" validate:"gte=0"`
	Name     string `json:"name" validate:"required,max=100"`
	Title    string `json:"title" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email,max=100"`
	PhoneNo  string `json:"phone_no" validate:"required,max=15"`
	Password string `json:"password" validate:"required,min=8,max=100,maxbytes=72"`
}

func (StudentRegistration) Role() Role             { return RoleStudent }
func (r StudentRegistration) RequestedID() int64   { return r.ID }
func (r StudentRegistration) ContactEmail() string { return r.Email }
func (r StudentRegistration) Secret() string       { return r.Password }
func (StudentRegistration) sealed()                {}

func (CompanyRegistration) Role() Role             { return RoleCompany }
func (r CompanyRegistration) RequestedID() int64   { return r.ID }
func (r CompanyRegistration) ContactEmail() string { return r.Email }
func (r CompanyRegistration) Secret() string       { return r.Password }
func (CompanyRegistration) sealed()                {}

func (AdminRegistration) Role() Role             { return RoleAdmin }
func (r AdminRegistration) RequestedID() int64   { return r.ID }
func (r AdminRegistration) ContactEmail() string { return r.Email }
func (r AdminRegistration) Secret() string       { return r.Password }
func (AdminRegistration) sealed()                {}

// NormalizeEmail is applied before any email is stored or compared.
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Profile is the public projection of a principal. It never carries the credential hash.
type Profile struct {
	ID    int64  `json:"id"`
	Role  string `json:"role"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`

	Student *StudentDetails `json:"student,omitempty"`
	Company *CompanyDetails `json:"company,omitempty"`
	Admin   *AdminDetails   `json:"admin,omitempty"`
}

type StudentDetails struct {
	CGPA           float64 `json:"cgpa"`
	GraduationYear int     `json:"graduation_year"`
	Department     string  `json:"department"`
}

type CompanyDetails struct {
	IndustryType  string `json:"industry_type"`
	ContactPerson string `json:"contact_person"`
	Website       string `json:"website,omitempty"`
	Location      string `json:"location"`
}

type AdminDetails struct {
	Title string `json:"title"`
}
