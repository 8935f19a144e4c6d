package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	departmentDatamodel "github.com/qnxg/yqwork/internal/core/datamodel/department"
	permissionDatamodel "github.com/qnxg/yqwork/internal/core/datamodel/permission"
	roleDatamodel "github.com/qnxg/yqwork/internal/core/datamodel/role"
	userDatamodel "github.com/qnxg/yqwork/internal/core/datamodel/user"
	"github.com/qnxg/yqwork/internal/permission"
	"github.com/qnxg/yqwork/internal/workhour"
	"github.com/qnxg/yqwork/pkg/logger"
)

var (
	clearData     bool
	adminStuID    string
	adminPassword string
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the permission catalog, default roles and an admin account",
	RunE:  runSeed,
}

func init() {
	seedCmd.Flags().BoolVar(&clearData, "clear", false, "Clear existing data before seeding")
	seedCmd.Flags().StringVar(&adminStuID, "admin-stu-id", "admin", "login of the seeded admin")
	seedCmd.Flags().StringVar(&adminPassword, "admin-password", "password", "password of the seeded admin")
}

type seedRole struct {
	name        string
	permissions []string
}

var seedCatalog = []permissionDatamodel.Permission{
	{Name: "super administrator", Permission: permission.Wildcard},
	{Name: "system administration", Permission: "system"},
	{Name: "permission catalog", Permission: "system:permission"},
	{Name: "roles", Permission: "system:role"},
	{Name: "departments", Permission: "system:department"},
	{Name: "campus workspace", Permission: "yq"},
	{Name: "users", Permission: "yq:user"},
	{Name: "query users", Permission: "yq:user:query"},
	{Name: "work hours", Permission: "yq:workHours"},
	{Name: "query work hours", Permission: workhour.PermQuery},
	{Name: "add work hour campaigns", Permission: workhour.PermAdd},
	{Name: "edit work hour campaigns", Permission: workhour.PermEdit},
	{Name: "delete work hour campaigns", Permission: workhour.PermDelete},
	{Name: "department review", Permission: workhour.PermCheckDepartment},
	{Name: "finance review", Permission: workhour.PermGenerateTable},
	{Name: "activity workspace", Permission: "hdwsh"},
}

var seedRoles = []seedRole{
	{name: "administrator", permissions: []string{permission.Wildcard}},
	{name: "member", permissions: []string{workhour.PermQuery}},
	{name: "department head", permissions: []string{workhour.PermQuery, workhour.PermCheckDepartment, "yq:user:query"}},
	{name: "finance", permissions: []string{"yq:workHours"}},
}

var seedDepartments = []string{"Technology", "Operations", "Finance"}

func runSeed(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	lg := logger.LoggerWrapper()

	db, err := initDB(cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	gdb, err := initGorm(db, cfg.Env)
	if err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(adminPassword), cfg.Security.BCryptCost)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	return gdb.WithContext(cmd.Context()).Transaction(func(tx *gorm.DB) error {
		if clearData {
			if err := tx.Exec(`TRUNCATE work_hour_records, work_hours, user_roles, role_permissions,
				users, roles, permissions, departments RESTART IDENTITY CASCADE`).Error; err != nil {
				return fmt.Errorf("clear data: %w", err)
			}
			lg.Info("cleared existing data")
		}

		var firstDept int64
		for _, name := range seedDepartments {
			d := departmentDatamodel.Department{Name: name}
			if err := tx.Where("name = ?", name).FirstOrCreate(&d).Error; err != nil {
				return fmt.Errorf("seed department %s: %w", name, err)
			}
			if firstDept == 0 {
				firstDept = d.ID
			}
		}

		byString := make(map[string]int64, len(seedCatalog))
		for _, p := range seedCatalog {
			row := p
			if err := tx.Where("permission = ?", p.Permission).FirstOrCreate(&row).Error; err != nil {
				return fmt.Errorf("seed permission %s: %w", p.Permission, err)
			}
			byString[row.Permission] = row.ID
		}

		roleIDs := make(map[string]int64, len(seedRoles))
		for _, sr := range seedRoles {
			r := roleDatamodel.Role{Name: sr.name}
			if err := tx.Where("name = ?", sr.name).FirstOrCreate(&r).Error; err != nil {
				return fmt.Errorf("seed role %s: %w", sr.name, err)
			}
			roleIDs[sr.name] = r.ID
			for _, perm := range sr.permissions {
				link := roleDatamodel.RolePermission{RoleID: r.ID, PermissionID: byString[perm]}
				if err := tx.Where(&link).FirstOrCreate(&link).Error; err != nil {
					return fmt.Errorf("link %s to role %s: %w", perm, sr.name, err)
				}
			}
		}

		var admin userDatamodel.User
		err := tx.Where("stu_id = ?", adminStuID).First(&admin).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			admin = userDatamodel.User{
				Name:         "Administrator",
				StuID:        adminStuID,
				PasswordHash: string(hash),
				DepartmentID: firstDept,
			}
			if err := tx.Create(&admin).Error; err != nil {
				return fmt.Errorf("seed admin: %w", err)
			}
			lg.Info("seeded admin user", "stu_id", adminStuID)
		case err != nil:
			return fmt.Errorf("lookup admin: %w", err)
		default:
			lg.Info("admin user already exists; will ensure role", "stu_id", adminStuID)
		}

		link := roleDatamodel.UserRole{UserID: admin.ID, RoleID: roleIDs["administrator"]}
		if err := tx.Where(&link).FirstOrCreate(&link).Error; err != nil {
			return fmt.Errorf("grant administrator role: %w", err)
		}

		lg.Info("seed complete",
			"departments", len(seedDepartments),
			"permissions", len(seedCatalog),
			"roles", len(seedRoles))
		return nil
	})
}
