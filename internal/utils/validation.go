package utils

import (
	"fmt"

	"github.com/sysu-ecnc-dev/vet-manager/backend/internal/domain"
)

// ValidateVetAssociations 检查兽医的专业和出诊日中是否存在重复的引用
func ValidateVetAssociations(vet *domain.Vet) error {
	seenSpecialties := make(map[int64]bool)
	for _, s := range vet.Specialties {
		if s.ID <= 0 {
			return fmt.Errorf("专业 %q 的 ID 无效", s.Name)
		}
		if seenSpecialties[s.ID] {
			return fmt.Errorf("专业 %d 重复", s.ID)
		}
		seenSpecialties[s.ID] = true
	}

	seenDays := make(map[int64]bool)
	for _, d := range vet.Days {
		if d.ID <= 0 {
			return fmt.Errorf("出诊日 %q 的 ID 无效", d.Name)
		}
		if seenDays[d.ID] {
			return fmt.Errorf("出诊日 %d 重复", d.ID)
		}
		seenDays[d.ID] = true
	}

	return nil
}
