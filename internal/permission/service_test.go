package permission_test

import (
	"context"
	"errors"
	"log/slog"
	"os"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	permissionDatamodel "github.com/qnxg/yqwork/internal/core/datamodel/permission"
	"github.com/qnxg/yqwork/internal/permission"
)

type MockRepository struct {
	rows   map[int64]*permissionDatamodel.Permission
	nextID int64
	err    error
}

func NewMockRepository() *MockRepository {
	return &MockRepository{rows: make(map[int64]*permissionDatamodel.Permission), nextID: 1}
}

func (m *MockRepository) List(ctx context.Context) ([]*permissionDatamodel.Permission, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []*permissionDatamodel.Permission
	for _, r := range m.rows {
		out = append(out, r)
	}
	return out, nil
}

func (m *MockRepository) GetByID(ctx context.Context, id int64) (*permissionDatamodel.Permission, error) {
	if r, ok := m.rows[id]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, permission.ErrPermissionNotFound
}

func (m *MockRepository) GetByPermission(ctx context.Context, p string) (*permissionDatamodel.Permission, error) {
	for _, r := range m.rows {
		if r.Permission == p {
			return r, nil
		}
	}
	return nil, nil
}

func (m *MockRepository) CountByIDs(ctx context.Context, ids []int64) (int64, error) {
	var n int64
	for _, id := range ids {
		if _, ok := m.rows[id]; ok {
			n++
		}
	}
	return n, nil
}

func (m *MockRepository) Create(ctx context.Context, p *permissionDatamodel.Permission) error {
	if m.err != nil {
		return m.err
	}
	p.ID = m.nextID
	m.nextID++
	cp := *p
	m.rows[p.ID] = &cp
	return nil
}

func (m *MockRepository) Update(ctx context.Context, p *permissionDatamodel.Permission) error {
	cp := *p
	m.rows[p.ID] = &cp
	return nil
}

func (m *MockRepository) Delete(ctx context.Context, id int64) error {
	delete(m.rows, id)
	return nil
}

type MockLookup struct {
	roles           map[int64][]int64
	perms           map[int64][]permission.Item
	permissionCalls int
}

func (m *MockLookup) UserRoleIDs(ctx context.Context, userID int64) ([]int64, error) {
	return m.roles[userID], nil
}

func (m *MockLookup) RolePermissions(ctx context.Context, roleIDs []int64) ([]permission.Item, error) {
	m.permissionCalls++
	var out []permission.Item
	for _, id := range roleIDs {
		out = append(out, m.perms[id]...)
	}
	return out, nil
}

var _ = Describe("Permission Service", func() {
	var (
		repo    *MockRepository
		lookup  *MockLookup
		service *permission.Service
		ctx     context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		repo = NewMockRepository()
		lookup = &MockLookup{
			roles: map[int64][]int64{1: {10, 20}},
			perms: map[int64][]permission.Item{
				10: {{ID: 1, Name: "work hours", Permission: "yq:workHours"}},
				20: {{ID: 2, Name: "roles", Permission: "system:role:query"}},
			},
		}
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		service = permission.NewService(repo, lookup, logger)
	})

	Describe("ForUser", func() {
		It("unions the permissions of every role", func() {
			set, err := service.ForUser(ctx, 1)
			Expect(err).NotTo(HaveOccurred())
			Expect(set.Has("yq:workHours:query")).To(BeTrue())
			Expect(set.Has("system:role:query")).To(BeTrue())
			Expect(set.Has("system:role:add")).To(BeFalse())
		})

		It("returns an empty set without querying permissions when the user has no roles", func() {
			set, err := service.ForUser(ctx, 99)
			Expect(err).NotTo(HaveOccurred())
			Expect(set.Len()).To(BeZero())
			Expect(lookup.permissionCalls).To(BeZero())
		})
	})

	Describe("Create", func() {
		It("stores a well-formed permission", func() {
			item, err := service.Create(ctx, permission.CreatePermissionDTO{Name: "query", Permission: " yq:workHours:query "})
			Expect(err).NotTo(HaveOccurred())
			Expect(item.ID).To(BeNumerically(">", 0))
			Expect(item.Permission).To(Equal("yq:workHours:query"))
		})

		It("rejects duplicate permission strings", func() {
			_, err := service.Create(ctx, permission.CreatePermissionDTO{Name: "a", Permission: "yq"})
			Expect(err).NotTo(HaveOccurred())

			_, err = service.Create(ctx, permission.CreatePermissionDTO{Name: "b", Permission: "yq"})
			Expect(errors.Is(err, permission.ErrPermissionExists)).To(BeTrue())
		})

		It("rejects malformed permission strings", func() {
			_, err := service.Create(ctx, permission.CreatePermissionDTO{Name: "bad", Permission: "yq::x"})
			Expect(errors.Is(err, permission.ErrInvalidPermission)).To(BeTrue())
		})

		It("requires a name", func() {
			_, err := service.Create(ctx, permission.CreatePermissionDTO{Permission: "yq"})
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("Update", func() {
		It("allows keeping the same permission string", func() {
			item, err := service.Create(ctx, permission.CreatePermissionDTO{Name: "a", Permission: "yq"})
			Expect(err).NotTo(HaveOccurred())

			updated, err := service.Update(ctx, item.ID, permission.UpdatePermissionDTO{Name: "renamed", Permission: "yq"})
			Expect(err).NotTo(HaveOccurred())
			Expect(updated.Name).To(Equal("renamed"))
		})

		It("returns not found for unknown ids", func() {
			_, err := service.Update(ctx, 42, permission.UpdatePermissionDTO{Name: "x", Permission: "yq"})
			Expect(errors.Is(err, permission.ErrPermissionNotFound)).To(BeTrue())
		})
	})

	Describe("AllExist", func() {
		It("checks ids against the catalog ignoring duplicates", func() {
			item, err := service.Create(ctx, permission.CreatePermissionDTO{Name: "a", Permission: "yq"})
			Expect(err).NotTo(HaveOccurred())

			ok, err := service.AllExist(ctx, []int64{item.ID, item.ID})
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeTrue())

			ok, err = service.AllExist(ctx, []int64{item.ID, 999})
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeFalse())
		})
	})

	Describe("Delete", func() {
		It("propagates not found", func() {
			Expect(errors.Is(service.Delete(ctx, 5), permission.ErrPermissionNotFound)).To(BeTrue())
		})
	})
})
