package members

import (
	"context"
	"errors"
	"fmt"

	"github.com/angelmondragon/membercards/pkg/db"
	"github.com/angelmondragon/membercards/pkg/db/models"
	"gorm.io/gorm"
)

// Repository stores members in the relational members table.
type Repository struct {
	conn *gorm.DB
}

// NewRepository binds a repository to the provided connection.
func NewRepository(conn *gorm.DB) *Repository {
	return &Repository{conn: conn}
}

// DB returns the connection bound to ctx (if any).
func (r *Repository) DB(ctx context.Context) *gorm.DB {
	if ctx == nil {
		return r.conn
	}
	return r.conn.WithContext(ctx)
}

func (r *Repository) List(ctx context.Context) ([]models.Member, error) {
	var rows []models.Member
	if err := r.DB(ctx).
		Order("data_filiacao ASC").
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	for i := range rows {
		normalize(&rows[i])
	}
	return rows, nil
}

func (r *Repository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.DB(ctx).Model(&models.Member{}).Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

func (r *Repository) FindByID(ctx context.Context, id string) (*models.Member, error) {
	return findByID(r.DB(ctx), id)
}

func findByID(conn *gorm.DB, id string) (*models.Member, error) {
	var m models.Member
	if err := conn.Where("id = ?", id).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	normalize(&m)
	return &m, nil
}

func (r *Repository) Append(ctx context.Context, member *models.Member) error {
	if member == nil {
		return fmt.Errorf("member is required")
	}
	if err := r.DB(ctx).Create(member).Error; err != nil {
		if db.IsUniqueViolation(err, "") {
			return fmt.Errorf("member %s already exists: %w", member.ID, err)
		}
		return err
	}
	return nil
}

// Update applies patch and reads the row back inside one transaction.
func (r *Repository) Update(ctx context.Context, id string, patch Patch) (*models.Member, error) {
	var updated *models.Member
	err := r.DB(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := findByID(tx, id); err != nil {
			return err
		}
		if cols := patch.columns(); len(cols) > 0 {
			if err := tx.Model(&models.Member{}).Where("id = ?", id).Updates(cols).Error; err != nil {
				return err
			}
		}
		var err error
		updated, err = findByID(tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (r *Repository) Remove(ctx context.Context, id string) error {
	res := r.DB(ctx).Where("id = ?", id).Delete(&models.Member{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// postgres hands timestamptz back in the session zone; keep API output in UTC.
func normalize(m *models.Member) {
	m.DataFiliacao = m.DataFiliacao.UTC()
}
