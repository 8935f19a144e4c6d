package permission_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/qnxg/yqwork/internal/permission"
)

func TestPermission(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Permission Suite")
}

var _ = Describe("Set", func() {
	Describe("Has", func() {
		It("always grants the wildcard request", func() {
			Expect(permission.NewSet(nil).Has("*")).To(BeTrue())
			Expect(permission.FromStrings("yq").Has("*")).To(BeTrue())
		})

		It("grants everything when the wildcard is held", func() {
			set := permission.FromStrings("*")
			Expect(set.Has("system:role:query")).To(BeTrue())
			Expect(set.Has("anything")).To(BeTrue())
		})

		It("grants exact matches", func() {
			set := permission.FromStrings("yq:workHours:query")
			Expect(set.Has("yq:workHours:query")).To(BeTrue())
			Expect(set.Has("yq:workHours:add")).To(BeFalse())
		})

		It("grants descendants of a held prefix on segment boundaries", func() {
			set := permission.FromStrings("yq:workHours")
			Expect(set.Has("yq:workHours:query")).To(BeTrue())
			Expect(set.Has("yq:workHours:checkDepartment")).To(BeTrue())
			Expect(set.Has("yq:workHours")).To(BeTrue())
		})

		It("does not grant on a partial segment match", func() {
			set := permission.FromStrings("yq:workHours")
			Expect(set.Has("yq:workHoursX")).To(BeFalse())
			Expect(set.Has("yq:workHoursX:query")).To(BeFalse())
			Expect(set.Has("yq")).To(BeFalse())
		})

		It("denies everything for an empty set except the wildcard", func() {
			set := permission.NewSet(nil)
			Expect(set.Has("system")).To(BeFalse())
			Expect(set.Has("")).To(BeFalse())
		})

		It("ignores empty catalog strings", func() {
			set := permission.FromStrings("")
			Expect(set.Has("system:role")).To(BeFalse())
		})
	})

	Describe("HasAny", func() {
		It("is true when one of the requests is granted", func() {
			set := permission.FromStrings("yq:workHours:generateTable")
			Expect(set.HasAny("yq:workHours:checkDepartment", "yq:workHours:generateTable")).To(BeTrue())
			Expect(set.HasAny("yq:user:query")).To(BeFalse())
		})
	})

	Describe("IsAdmin", func() {
		It("is true for a wildcard holder", func() {
			Expect(permission.FromStrings("*").IsAdmin()).To(BeTrue())
		})

		It("is true when all three namespaces are held", func() {
			Expect(permission.FromStrings("system", "yq", "hdwsh").IsAdmin()).To(BeTrue())
		})

		It("is false when any namespace is missing", func() {
			Expect(permission.FromStrings("yq", "hdwsh").IsAdmin()).To(BeFalse())
			Expect(permission.FromStrings("system", "yq").IsAdmin()).To(BeFalse())
		})

		It("is false when only descendants of the namespaces are held", func() {
			set := permission.FromStrings("system:role", "yq:workHours", "hdwsh:x")
			Expect(set.IsAdmin()).To(BeFalse())
		})
	})

	Describe("Items and Strings", func() {
		It("returns copies that do not alias the set", func() {
			set := permission.NewSet([]permission.Item{{ID: 1, Name: "all", Permission: "*"}})
			items := set.Items()
			items[0].Permission = "nothing"
			Expect(set.Strings()).To(Equal([]string{"*"}))
			Expect(set.Len()).To(Equal(1))
		})
	})
})

var _ = Describe("ValidString", func() {
	DescribeTable("permission string shapes",
		func(p string, valid bool) {
			Expect(permission.ValidString(p)).To(Equal(valid))
		},
		Entry("wildcard", "*", true),
		Entry("single segment", "system", true),
		Entry("nested", "yq:workHours:query", true),
		Entry("empty", "", false),
		Entry("leading separator", ":yq", false),
		Entry("trailing separator", "yq:", false),
		Entry("empty middle segment", "yq::query", false),
		Entry("embedded wildcard", "yq:*", false),
		Entry("whitespace", "yq:work hours", false),
	)
})

var _ = Describe("Actor", func() {
	It("delegates checks to its permission set", func() {
		actor := permission.Actor{UserID: 1, DepartmentID: 2, Permissions: permission.FromStrings("yq:workHours")}
		Expect(actor.Has("yq:workHours:query")).To(BeTrue())
		Expect(actor.IsAdmin()).To(BeFalse())
	})
})
