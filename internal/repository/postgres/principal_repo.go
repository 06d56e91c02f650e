package postgres

import (
	"context"
	"fmt"

	"github.com/NordCoder/Placement/internal/domain/principal"
	"github.com/jackc/pgx/v5"
)

var _ principal.Repo = (*PrincipalRepo)(nil)

type PrincipalRepo struct {
	db *DB
}

func NewPrincipalRepo(db *DB) *PrincipalRepo { return &PrincipalRepo{db: db} }

// roleSchema holds the statements every role shares, differing only in table names.
type roleSchema struct {
	table string

	lookup     string
	exists     string
	bumpSeq    string
	email      string
	phone      string
	credential string
}

func newRoleSchema(table, prefix string) roleSchema {
	fk := prefix + "_id"
	return roleSchema{
		table: table,
		lookup: fmt.Sprintf(`
SELECT %[2]s AS principal_id, password_hash
FROM %[1]s_credentials
WHERE %[2]s = $1;`, prefix, fk),
		exists: fmt.Sprintf(`
SELECT EXISTS (SELECT 1 FROM %[1]s WHERE id = $1)
    OR EXISTS (SELECT 1 FROM %[2]s_emails WHERE email = $2);`, table, prefix),
		// Raises the id sequence to an explicit id, never lowers it.
		bumpSeq: fmt.Sprintf(`
SELECT setval(s.seq, $1)
FROM (SELECT pg_get_serial_sequence('%[1]s', 'id')::regclass AS seq) s
WHERE $1 > COALESCE(pg_sequence_last_value(s.seq), 0);`, table),
		email: fmt.Sprintf(`
INSERT INTO %[1]s_emails (%[2]s, email) VALUES ($1, $2);`, prefix, fk),
		phone: fmt.Sprintf(`
INSERT INTO %[1]s_phones (%[2]s, phone) VALUES ($1, $2);`, prefix, fk),
		credential: fmt.Sprintf(`
INSERT INTO %[1]s_credentials (%[2]s, password_hash) VALUES ($1, $2);`, prefix, fk),
	}
}

var schemas = map[principal.Role]roleSchema{
	principal.RoleStudent: newRoleSchema("students", "student"),
	principal.RoleCompany: newRoleSchema("companies", "company"),
	principal.RoleAdmin:   newRoleSchema("admins", "admin"),
}

const (
	qStudentInsert = `
INSERT INTO students (id, name, cgpa, graduation_year, department)
VALUES (COALESCE($1, nextval(pg_get_serial_sequence('students', 'id'))), $2, $3, $4, $5)
RETURNING id;`

	qCompanyInsert = `
INSERT INTO companies (id, name, industry_type, contact_person, website)
VALUES (COALESCE($1, nextval(pg_get_serial_sequence('companies', 'id'))), $2, $3, $4, $5)
RETURNING id;`

	qAdminInsert = `
INSERT INTO admins (id, name, title)
VALUES (COALESCE($1, nextval(pg_get_serial_sequence('admins', 'id'))), $2, $3)
RETURNING id;`

	qCompanyLocation = `
INSERT INTO company_locations (company_id, location) VALUES ($1, $2);`

	qStudentProfile = `
SELECT s.id, s.name, s.cgpa::float8 AS cgpa, s.graduation_year, s.department,
       COALESCE(e.email, '') AS email, COALESCE(p.phone, '') AS phone
FROM students s
LEFT JOIN student_emails e ON e.student_id = s.id
LEFT JOIN student_phones p ON p.student_id = s.id
WHERE s.id = $1;`

	qCompanyProfile = `
SELECT c.id, c.name, c.industry_type, c.contact_person, c.website,
       COALESCE(l.location, '') AS location,
       COALESCE(e.email, '') AS email, COALESCE(p.phone, '') AS phone
FROM companies c
LEFT JOIN company_locations l ON l.company_id = c.id
LEFT JOIN company_emails e ON e.company_id = c.id
LEFT JOIN company_phones p ON p.company_id = c.id
WHERE c.id = $1;`

	qAdminProfile = `
SELECT a.id, a.name, a.title,
       COALESCE(e.email, '') AS email, COALESCE(p.phone, '') AS phone
FROM admins a
LEFT JOIN admin_emails e ON e.admin_id = a.id
LEFT JOIN admin_phones p ON p.admin_id = a.id
WHERE a.id = $1;`
)

type credentialRow struct {
	PrincipalID  int64  `db:"principal_id"`
	PasswordHash string `db:"password_hash"`
}

type studentRow struct {
	ID             int64   `db:"id"`
	Name           string  `db:"name"`
	CGPA           float64 `db:"cgpa"`
	GraduationYear int     `db:"graduation_year"`
	Department     string  `db:"department"`
	Email          string  `db:"email"`
	Phone          string  `db:"phone"`
}

type companyRow struct {
	ID            int64  `db:"id"`
	Name          string `db:"name"`
	IndustryType  string `db:"industry_type"`
	ContactPerson string `db:"contact_person"`
	Website       string `db:"website"`
	Location      string `db:"location"`
	Email         string `db:"email"`
	Phone         string `db:"phone"`
}

type adminRow struct {
	ID    int64  `db:"id"`
	Name  string `db:"name"`
	Title string `db:"title"`
	Email string `db:"email"`
	Phone string `db:"phone"`
}

func schemaFor(role principal.Role) (roleSchema, error) {
	s, ok := schemas[role]
	if !ok {
		return roleSchema{}, fmt.Errorf("%w: %s", principal.ErrUnsupportedRole, role)
	}
	return s, nil
}

func nullableID(id int64) any {
	if id <= 0 {
		return nil
	}
	return id
}

func (r *PrincipalRepo) Lookup(ctx context.Context, role principal.Role, id int64) (principal.Credential, error) {
	s, err := schemaFor(role)
	if err != nil {
		return principal.Credential{}, err
	}
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	row, err := queryOne[credentialRow](ctx, r.db.execQueryer(ctx), s.lookup, id)
	if err != nil {
		return principal.Credential{}, classify("credential lookup", err)
	}
	return principal.Credential{PrincipalID: row.PrincipalID, Role: role, Hash: row.PasswordHash}, nil
}

func (r *PrincipalRepo) Exists(ctx context.Context, reg principal.Registration) (bool, error) {
	s, err := schemaFor(reg.Role())
	if err != nil {
		return false, err
	}
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	var exists bool
	err = r.db.execQueryer(ctx).
		QueryRow(ctx, s.exists, reg.RequestedID(), principal.NormalizeEmail(reg.ContactEmail())).
		Scan(&exists)
	if err != nil {
		return false, classify("principal exists", err)
	}
	return exists, nil
}

func (r *PrincipalRepo) Create(ctx context.Context, reg principal.Registration, hash string) (int64, error) {
	if err := requireTx(ctx, "principal create"); err != nil {
		return 0, err
	}
	s, err := schemaFor(reg.Role())
	if err != nil {
		return 0, err
	}
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()
	eq := r.db.execQueryer(ctx)

	var (
		id       int64
		phone    string
		location string
	)
	switch v := reg.(type) {
	case principal.StudentRegistration:
		err = eq.QueryRow(ctx, qStudentInsert, nullableID(v.ID), v.Name, v.CGPA, v.GraduationYear, v.Department).Scan(&id)
		phone = v.PhoneNumber
	case principal.CompanyRegistration:
		err = eq.QueryRow(ctx, qCompanyInsert, nullableID(v.ID), v.Name, v.IndustryType, v.ContactPerson, v.Website).Scan(&id)
		phone, location = v.PhoneNo, v.Location
	case principal.AdminRegistration:
		err = eq.QueryRow(ctx, qAdminInsert, nullableID(v.ID), v.Name, v.Title).Scan(&id)
		phone = v.PhoneNo
	default:
		return 0, fmt.Errorf("%w: %T", principal.ErrUnsupportedRole, reg)
	}
	if err != nil {
		return 0, classify("insert "+s.table, err)
	}

	if reg.RequestedID() > 0 {
		if _, err := eq.Exec(ctx, s.bumpSeq, id); err != nil {
			return 0, classify("bump "+s.table+" sequence", err)
		}
	}
	if _, err := eq.Exec(ctx, s.email, id, principal.NormalizeEmail(reg.ContactEmail())); err != nil {
		return 0, classify("insert "+s.table+" email", err)
	}
	if _, err := eq.Exec(ctx, s.phone, id, phone); err != nil {
		return 0, classify("insert "+s.table+" phone", err)
	}
	if reg.Role() == principal.RoleCompany {
		if _, err := eq.Exec(ctx, qCompanyLocation, id, location); err != nil {
			return 0, classify("insert company location", err)
		}
	}
	if _, err := eq.Exec(ctx, s.credential, id, hash); err != nil {
		return 0, classify("insert "+s.table+" credential", err)
	}
	return id, nil
}

func (r *PrincipalRepo) Profile(ctx context.Context, role principal.Role, id int64) (*principal.Profile, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()
	eq := r.db.execQueryer(ctx)

	switch role {
	case principal.RoleStudent:
		row, err := queryOne[studentRow](ctx, eq, qStudentProfile, id)
		if err != nil {
			return nil, classify("student profile", err)
		}
		return &principal.Profile{
			ID: row.ID, Role: role.String(), Name: row.Name, Email: row.Email, Phone: row.Phone,
			Student: &principal.StudentDetails{
				CGPA: row.CGPA, GraduationYear: row.GraduationYear, Department: row.Department,
			},
		}, nil
	case principal.RoleCompany:
		row, err := queryOne[companyRow](ctx, eq, qCompanyProfile, id)
		if err != nil {
			return nil, classify("company profile", err)
		}
		return &principal.Profile{
			ID: row.ID, Role: role.String(), Name: row.Name, Email: row.Email, Phone: row.Phone,
			Company: &principal.CompanyDetails{
				IndustryType: row.IndustryType, ContactPerson: row.ContactPerson,
				Website: row.Website, Location: row.Location,
			},
		}, nil
	case principal.RoleAdmin:
		row, err := queryOne[adminRow](ctx, eq, qAdminProfile, id)
		if err != nil {
			return nil, classify("admin profile", err)
		}
		return &principal.Profile{
			ID: row.ID, Role: role.String(), Name: row.Name, Email: row.Email, Phone: row.Phone,
			Admin: &principal.AdminDetails{Title: row.Title},
		}, nil
	default:
		return nil, fmt.Errorf("%w: %s", principal.ErrUnsupportedRole, role)
	}
}

// queryOne decodes exactly one row by column name; a column without a matching field fails.
func queryOne[T any](ctx context.Context, eq execQueryer, sql string, args ...any) (T, error) {
	rows, err := eq.Query(ctx, sql, args...)
	if err != nil {
		var zero T
		return zero, err
	}
	return pgx.CollectOneRow(rows, pgx.RowToStructByName[T])
}
