package main

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/pressly/goose/v3"
	"gorm.io/gorm"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

func newPersistence(dbPath string) (*persistence, error) {
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("open sql db: %w", err)
	}

	if err := runMigrations(sqlDB); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &persistence{db: db}, nil
}

func runMigrations(db *sql.DB) error {
	goose.SetLogger(goose.NopLogger())
	goose.SetBaseFS(migrationsFS)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return err
	}
	return goose.Up(db, "migrations")
}

func (p *persistence) getDomain(id string) (domainModel, []string, error) {
	var d domainModel
	if err := p.db.First(&d, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domainModel{}, nil, errTenantNotFound
		}
		return domainModel{}, nil, fmt.Errorf("lookup domain: %w", err)
	}

	subs, err := unmarshalStrings(d.SubdomainsJSON)
	if err != nil {
		return domainModel{}, nil, fmt.Errorf("decode domain %s: %w", d.ID, err)
	}
	return d, subs, nil
}

func (p *persistence) createDomain(id, createdBy string, subdomains []string) error {
	subsJSON, err := marshalStrings(subdomains)
	if err != nil {
		return err
	}

	model := domainModel{
		ID:             id,
		CreatedBy:      createdBy,
		CreatedDate:    time.Now().UTC(),
		SubdomainsJSON: subsJSON,
	}
	if err := p.db.Create(&model).Error; err != nil {
		return fmt.Errorf("create domain: %w", err)
	}
	return nil
}

func (p *persistence) saveSubdomains(id string, subdomains []string) error {
	subsJSON, err := marshalStrings(subdomains)
	if err != nil {
		return err
	}

	res := p.db.Model(&domainModel{}).Where("id = ?", id).Update("subdomains_json", subsJSON)
	if res.Error != nil {
		return fmt.Errorf("save subdomains: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return errTenantNotFound
	}
	return nil
}

// listDomains returns every domain document. The set of tenants stays small
// enough that global-uniqueness checks scan it directly.
func (p *persistence) listDomains() ([]domainModel, error) {
	var out []domainModel
	if err := p.db.Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list domains: %w", err)
	}
	return out, nil
}

func (p *persistence) getUser(utokyoID string) (userModel, error) {
	var u userModel
	if err := p.db.First(&u, "utokyo_id = ?", utokyoID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return userModel{}, gorm.ErrRecordNotFound
		}
		return userModel{}, fmt.Errorf("lookup user: %w", err)
	}
	return u, nil
}

func (p *persistence) upsertUser(utokyoID, secretHash string) error {
	var existing userModel
	err := p.db.First(&existing, "utokyo_id = ?", utokyoID).Error
	if err == nil {
		existing.UserSecret = secretHash
		if err := p.db.Save(&existing).Error; err != nil {
			return fmt.Errorf("update user: %w", err)
		}
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("lookup user: %w", err)
	}

	model := userModel{
		UtokyoID:    utokyoID,
		CreatedDate: time.Now().UTC(),
		UserSecret:  secretHash,
	}
	if err := p.db.Create(&model).Error; err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (p *persistence) loadRecordSets() ([]recordSet, error) {
	var rows []recordModel
	if err := p.db.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load records: %w", err)
	}

	out := make([]recordSet, 0, len(rows))
	for _, row := range rows {
		data, err := unmarshalStrings(row.DataJSON)
		if err != nil {
			return nil, fmt.Errorf("decode record %s/%s: %w", row.Name, row.Type, err)
		}
		out = append(out, recordSet{
			Name:      row.Name,
			Type:      row.Type,
			Data:      data,
			TTL:       row.TTL,
			UpdatedAt: row.UpdatedAt,
		})
	}
	return out, nil
}

// applyRecordChange persists a change batch in one transaction: deletes
// first, then adds, replacing any row left at the added (name, type).
func (p *persistence) applyRecordChange(batch changeBatch) error {
	return p.db.Transaction(func(tx *gorm.DB) error {
		for _, rs := range batch.Deletes {
			if err := tx.Delete(&recordModel{}, "name = ? AND type = ?", rs.Name, rs.Type).Error; err != nil {
				return fmt.Errorf("delete record %s/%s: %w", rs.Name, rs.Type, err)
			}
		}
		for _, rs := range batch.Adds {
			dataJSON, err := marshalStrings(rs.Data)
			if err != nil {
				return err
			}
			if err := tx.Delete(&recordModel{}, "name = ? AND type = ?", rs.Name, rs.Type).Error; err != nil {
				return fmt.Errorf("replace record %s/%s: %w", rs.Name, rs.Type, err)
			}
			model := recordModel{
				Name:      rs.Name,
				Type:      rs.Type,
				DataJSON:  dataJSON,
				TTL:       rs.TTL,
				UpdatedAt: rs.UpdatedAt,
			}
			if err := tx.Create(&model).Error; err != nil {
				return fmt.Errorf("add record %s/%s: %w", rs.Name, rs.Type, err)
			}
		}
		return nil
	})
}
