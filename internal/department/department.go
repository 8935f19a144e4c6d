package department

import (
	departmentDatamodel "github.com/qnxg/yqwork/internal/core/datamodel/department"
)

type Department struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Desc string `json:"desc"`
}

func ToDataModel(d *Department) *departmentDatamodel.Department {
	return &departmentDatamodel.Department{
		ID:   d.ID,
		Name: d.Name,
		Desc: d.Desc,
	}
}

func FromDataModel(d *departmentDatamodel.Department) *Department {
	return &Department{
		ID:   d.ID,
		Name: d.Name,
		Desc: d.Desc,
	}
}
