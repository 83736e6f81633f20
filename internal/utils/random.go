package utils

import (
	"math/rand"
	"strings"

	"github.com/mozillazg/go-pinyin"
	"github.com/sysu-ecnc-dev/vet-manager/backend/internal/domain"
)

var commonSurnames = []string{
	"王", "李", "张", "刘", "陈", "杨", "赵", "黄", "周", "吴",
	"徐", "孙", "胡", "朱", "高", "林", "何", "郭", "马", "罗",
}
var commonNameCharacters = []string{
	"伟", "强", "芳", "敏", "静", "丽", "刚", "杰", "娟", "勇",
	"艳", "涛", "明", "军", "磊", "洋", "勇", "霞", "飞", "玲",
	"超", "华", "平", "辉", "梅", "鑫", "龙", "鹏", "玉", "斌",
	"庆", "建", "丹", "彬", "凤", "旭", "宁", "乐", "成", "欣",
}

// GenerateRandomChineseName 分别返回姓和名
func GenerateRandomChineseName() (string, string) {
	surname := commonSurnames[rand.Intn(len(commonSurnames))]
	nameLength := rand.Intn(2) + 1
	name := ""

	for i := 0; i < nameLength; i++ {
		name += commonNameCharacters[rand.Intn(len(commonNameCharacters))]
	}
	return surname, name
}

// Romanize 将汉字转换为首字母大写的拼音，例如 "建华" -> "Jianhua"
func Romanize(chinese string) string {
	syllables := pinyin.LazyConvert(chinese, nil)
	joined := strings.Join(syllables, "")
	if joined == "" {
		return ""
	}
	return strings.ToUpper(joined[:1]) + joined[1:]
}

// 使用 Fisher-Yates 洗牌算法来生成一个大小不超过 limit 的随机子集，可能为空
func randomSubset[T any](arr []T, limit int) []T {
	arrCopy := append([]T{}, arr...) // 复制数组，避免修改原数组

	for i := 0; i < len(arrCopy)-1; i++ {
		j := rand.Intn(len(arrCopy)-i) + i
		arrCopy[i], arrCopy[j] = arrCopy[j], arrCopy[i]
	}

	if limit > len(arrCopy) {
		limit = len(arrCopy)
	}
	if limit <= 0 {
		return []T{}
	}
	return arrCopy[:rand.Intn(limit+1)]
}

// GenerateRandomVet 生成一个尚未持久化的兽医，专业和出诊日从给定的参考数据中随机挑选
func GenerateRandomVet(specialties []domain.Specialty, days []domain.Day, maxSpecialties, maxDays int) *domain.Vet {
	surname, name := GenerateRandomChineseName()

	vet := &domain.Vet{
		FirstName:   Romanize(name),
		LastName:    Romanize(surname),
		Specialties: []domain.Specialty{},
		Days:        []domain.Day{},
	}

	for _, s := range randomSubset(specialties, maxSpecialties) {
		vet.AddSpecialty(s)
	}
	for _, d := range randomSubset(days, maxDays) {
		vet.AddDay(d)
	}

	return vet
}
