package domain

import (
	"cmp"
	"slices"
	"strings"
)

type Specialty struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type Day struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type Vet struct {
	ID          int64       `json:"id"`
	FirstName   string      `json:"firstName"`
	LastName    string      `json:"lastName"`
	Specialties []Specialty `json:"specialties"`
	Days        []Day       `json:"days"`
	Version     int32       `json:"-"`
}

// Vets 只用于序列化兽医列表
type Vets struct {
	VetList []*Vet `json:"vetList"`
}

func (v *Vet) IsNew() bool {
	return v.ID == 0
}

func (v *Vet) FullName() string {
	return strings.TrimSpace(v.FirstName + " " + v.LastName)
}

// Rename 返回姓名是否发生了变化
func (v *Vet) Rename(firstName, lastName string) bool {
	if v.FirstName == firstName && v.LastName == lastName {
		return false
	}
	v.FirstName = firstName
	v.LastName = lastName
	return true
}

func (v *Vet) HasSpecialty(id int64) bool {
	return slices.ContainsFunc(v.Specialties, func(s Specialty) bool { return s.ID == id })
}

// AddSpecialty 重复添加同一个专业不会产生任何变化
func (v *Vet) AddSpecialty(s Specialty) bool {
	if v.HasSpecialty(s.ID) {
		return false
	}
	v.Specialties = append(v.Specialties, s)
	return true
}

func (v *Vet) RemoveSpecialty(id int64) bool {
	if !v.HasSpecialty(id) {
		return false
	}
	v.Specialties = slices.DeleteFunc(v.Specialties, func(s Specialty) bool { return s.ID == id })
	return true
}

func (v *Vet) NrOfSpecialties() int {
	return len(v.Specialties)
}

// SortedSpecialties 按名称排序，不修改原切片
func (v *Vet) SortedSpecialties() []Specialty {
	out := slices.Clone(v.Specialties)
	slices.SortFunc(out, func(a, b Specialty) int { return strings.Compare(a.Name, b.Name) })
	return out
}

func (v *Vet) HasDay(id int64) bool {
	return slices.ContainsFunc(v.Days, func(d Day) bool { return d.ID == id })
}

func (v *Vet) AddDay(d Day) bool {
	if v.HasDay(d.ID) {
		return false
	}
	v.Days = append(v.Days, d)
	return true
}

func (v *Vet) RemoveDay(id int64) bool {
	if !v.HasDay(id) {
		return false
	}
	v.Days = slices.DeleteFunc(v.Days, func(d Day) bool { return d.ID == id })
	return true
}

// SortedDays 按 ID 排序，即周一在前
func (v *Vet) SortedDays() []Day {
	out := slices.Clone(v.Days)
	slices.SortFunc(out, func(a, b Day) int { return cmp.Compare(a.ID, b.ID) })
	return out
}

// Clone 返回一份深拷贝，存储层借此避免调用方修改共享数据
func (v *Vet) Clone() *Vet {
	c := *v
	c.Specialties = slices.Clone(v.Specialties)
	c.Days = slices.Clone(v.Days)
	if c.Specialties == nil {
		c.Specialties = []Specialty{}
	}
	if c.Days == nil {
		c.Days = []Day{}
	}
	return &c
}
