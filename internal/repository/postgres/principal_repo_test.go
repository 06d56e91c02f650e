package postgres

import (
	"context"
	"errors"
	"testing"

	domainauth "github.com/NordCoder/Placement/internal/domain/auth"
	"github.com/NordCoder/Placement/internal/domain/principal"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var student42 = principal.StudentRegistration{
	ID:             42,
	Name:           "Ada",
	CGPA:           9.1,
	GraduationYear: 2025,
	Department:     "CSE",
	Email:          " Ada@Example.com ",
	PhoneNumber:    "5550100",
	Password:       "Secret123!",
}

func TestPrincipalRepo_Lookup(t *testing.T) {
	ctx := context.Background()
	columns := []string{"principal_id", "password_hash"}

	tests := []struct {
		name    string
		role    principal.Role
		table   string
		setup   func(mock pgxmock.PgxPoolIface, table string)
		want    principal.Credential
		wantErr error
	}{
		{
			name:  "student found",
			role:  principal.RoleStudent,
			table: "FROM student_credentials",
			setup: func(mock pgxmock.PgxPoolIface, table string) {
				mock.ExpectQuery(table).WithArgs(int64(42)).
					WillReturnRows(pgxmock.NewRows(columns).AddRow(int64(42), "$2a$04$hash"))
			},
			want: principal.Credential{PrincipalID: 42, Role: principal.RoleStudent, Hash: "$2a$04$hash"},
		},
		{
			name:  "company found",
			role:  principal.RoleCompany,
			table: "FROM company_credentials",
			setup: func(mock pgxmock.PgxPoolIface, table string) {
				mock.ExpectQuery(table).WithArgs(int64(42)).
					WillReturnRows(pgxmock.NewRows(columns).AddRow(int64(42), "h"))
			},
			want: principal.Credential{PrincipalID: 42, Role: principal.RoleCompany, Hash: "h"},
		},
		{
			name:  "admin missing",
			role:  principal.RoleAdmin,
			table: "FROM admin_credentials",
			setup: func(mock pgxmock.PgxPoolIface, table string) {
				mock.ExpectQuery(table).WithArgs(int64(42)).WillReturnRows(pgxmock.NewRows(columns))
			},
			wantErr: domainauth.ErrNotFound,
		},
		{
			name:  "store down",
			role:  principal.RoleStudent,
			table: "FROM student_credentials",
			setup: func(mock pgxmock.PgxPoolIface, table string) {
				mock.ExpectQuery(table).WithArgs(int64(42)).
					WillReturnError(&pgconn.PgError{Code: pgerrcode.ConnectionFailure})
			},
			wantErr: domainauth.ErrStoreUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, db := newMockDB(t)
			tt.setup(mock, tt.table)

			got, err := NewPrincipalRepo(db).Lookup(ctx, tt.role, 42)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}

	t.Run("unknown role never touches the store", func(t *testing.T) {
		mock, db := newMockDB(t)
		_, err := NewPrincipalRepo(db).Lookup(ctx, principal.RoleUnknown, 42)
		assert.ErrorIs(t, err, domainauth.ErrUnsupportedRole)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPrincipalRepo_Exists(t *testing.T) {
	mock, db := newMockDB(t)

	mock.ExpectQuery("FROM students WHERE id").
		WithArgs(int64(42), "ada@example.com").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

	ok, err := NewPrincipalRepo(db).Exists(context.Background(), student42)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBumpSeqNeverLowersSequence(t *testing.T) {
	for role, s := range schemas {
		assert.NotContains(t, s.bumpSeq, "MAX(id)", role)
		assert.Contains(t, s.bumpSeq, "pg_get_serial_sequence('"+s.table+"', 'id')", role)
		assert.Contains(t, s.bumpSeq, "WHERE $1 > COALESCE(pg_sequence_last_value(s.seq), 0)", role)
	}
}

func TestPrincipalRepo_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("requires a transaction", func(t *testing.T) {
		mock, db := newMockDB(t)
		_, err := NewPrincipalRepo(db).Create(ctx, student42, "hash")
		assert.ErrorIs(t, err, ErrTxNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("student with explicit id", func(t *testing.T) {
		mock, db := newMockDB(t)
		repo := NewPrincipalRepo(db)

		mock.ExpectBegin()
		mock.ExpectQuery("INSERT INTO students").
			WithArgs(int64(42), "Ada", 9.1, 2025, "CSE").
			WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(42)))
		mock.ExpectExec(`WHERE \$1 > COALESCE\(pg_sequence_last_value\(s.seq\), 0\)`).
			WithArgs(int64(42)).
			WillReturnResult(pgxmock.NewResult("SELECT", 1))
		mock.ExpectExec("INSERT INTO student_emails").
			WithArgs(int64(42), "ada@example.com").
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		mock.ExpectExec("INSERT INTO student_phones").
			WithArgs(int64(42), "5550100").
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		mock.ExpectExec("INSERT INTO student_credentials").
			WithArgs(int64(42), "hash").
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		mock.ExpectCommit()

		var id int64
		err := NewTransactor(db, zap.NewNop()).WithTx(ctx, func(ctx context.Context) error {
			var err error
			id, err = repo.Create(ctx, student42, "hash")
			return err
		})
		require.NoError(t, err)
		assert.Equal(t, int64(42), id)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("company with generated id writes location", func(t *testing.T) {
		mock, db := newMockDB(t)
		repo := NewPrincipalRepo(db)
		reg := principal.CompanyRegistration{
			Name: "Acme", IndustryType: "IT", ContactPerson: "Bo", Website: "https://acme.io",
			Email: "hr@acme.io", PhoneNo: "5550101", Location: "Pune", Password: "Secret123!",
		}

		mock.ExpectBegin()
		mock.ExpectQuery("INSERT INTO companies").
			WithArgs(nil, "Acme", "IT", "Bo", "https://acme.io").
			WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(7)))
		mock.ExpectExec("INSERT INTO company_emails").WithArgs(int64(7), "hr@acme.io").
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		mock.ExpectExec("INSERT INTO company_phones").WithArgs(int64(7), "5550101").
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		mock.ExpectExec("INSERT INTO company_locations").WithArgs(int64(7), "Pune").
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		mock.ExpectExec("INSERT INTO company_credentials").WithArgs(int64(7), "hash").
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		mock.ExpectCommit()

		var id int64
		err := NewTransactor(db, zap.NewNop()).WithTx(ctx, func(ctx context.Context) error {
			var err error
			id, err = repo.Create(ctx, reg, "hash")
			return err
		})
		require.NoError(t, err)
		assert.Equal(t, int64(7), id)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("duplicate email rolls everything back", func(t *testing.T) {
		mock, db := newMockDB(t)
		repo := NewPrincipalRepo(db)

		mock.ExpectBegin()
		mock.ExpectQuery("INSERT INTO students").
			WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(42)))
		mock.ExpectExec("setval").WithArgs(int64(42)).WillReturnResult(pgxmock.NewResult("SELECT", 1))
		mock.ExpectExec("INSERT INTO student_emails").
			WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "student_emails_email_key"})
		mock.ExpectRollback()

		err := NewTransactor(db, zap.NewNop()).WithTx(ctx, func(ctx context.Context) error {
			_, err := repo.Create(ctx, student42, "hash")
			return err
		})
		assert.ErrorIs(t, err, domainauth.ErrConflict)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("failure on credential insert rolls back", func(t *testing.T) {
		mock, db := newMockDB(t)
		repo := NewPrincipalRepo(db)
		reg := principal.AdminRegistration{Name: "Root", Title: "TPO", Email: "root@x.io", PhoneNo: "1", Password: "Secret123!"}

		mock.ExpectBegin()
		mock.ExpectQuery("INSERT INTO admins").WithArgs(nil, "Root", "TPO").
			WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(3)))
		mock.ExpectExec("INSERT INTO admin_emails").WillReturnResult(pgxmock.NewResult("INSERT", 1))
		mock.ExpectExec("INSERT INTO admin_phones").WillReturnResult(pgxmock.NewResult("INSERT", 1))
		mock.ExpectExec("INSERT INTO admin_credentials").WillReturnError(errors.New("disk full"))
		mock.ExpectRollback()

		err := NewTransactor(db, zap.NewNop()).WithTx(ctx, func(ctx context.Context) error {
			_, err := repo.Create(ctx, reg, "hash")
			return err
		})
		assert.Error(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPrincipalRepo_Profile(t *testing.T) {
	ctx := context.Background()

	t.Run("student", func(t *testing.T) {
		mock, db := newMockDB(t)
		mock.ExpectQuery("FROM students s").WithArgs(int64(42)).
			WillReturnRows(pgxmock.NewRows([]string{"id", "name", "cgpa", "graduation_year", "department", "email", "phone"}).
				AddRow(int64(42), "Ada", 9.1, 2025, "CSE", "ada@example.com", "5550100"))

		p, err := NewPrincipalRepo(db).Profile(ctx, principal.RoleStudent, 42)
		require.NoError(t, err)
		assert.Equal(t, "student", p.Role)
		assert.Equal(t, "ada@example.com", p.Email)
		require.NotNil(t, p.Student)
		assert.Equal(t, 2025, p.Student.GraduationYear)
		assert.Nil(t, p.Company)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("admin missing", func(t *testing.T) {
		mock, db := newMockDB(t)
		mock.ExpectQuery("FROM admins a").WithArgs(int64(9)).
			WillReturnRows(pgxmock.NewRows([]string{"id", "name", "title", "email", "phone"}))

		_, err := NewPrincipalRepo(db).Profile(ctx, principal.RoleAdmin, 9)
		assert.ErrorIs(t, err, domainauth.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
