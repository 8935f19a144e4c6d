package department

type SaveDepartmentDTO struct {
	Name string `json:"name" validate:"required,max=64"`
	Desc string `json:"desc" validate:"max=255"`
}
