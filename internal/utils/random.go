package utils

import (
	"math/rand"
	"strings"

	"github.com/hr-onboarding/employee-wizard/backend/internal/domain"
	"github.com/mozillazg/go-pinyin"
	"golang.org/x/crypto/bcrypt"
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

func GenerateRandomChineseName() string {
	surname := commonSurnames[rand.Intn(len(commonSurnames))]
	nameLength := rand.Intn(2) + 1
	name := ""

	for i := 0; i < nameLength; i++ {
		name += commonNameCharacters[rand.Intn(len(commonNameCharacters))]
	}
	return surname + name
}

var digits = "0123456789"

func GenerateUsernameFromChineseName(chineseName string) string {
	pinyinArray := pinyin.LazyConvert(chineseName, nil)
	username := ""

	for _, pinyin := range pinyinArray {
		length := rand.Intn(len(pinyin)) + 1
		username += pinyin[:length]
	}

	digitsLength := rand.Intn(3) + 1
	for i := 0; i < digitsLength; i++ {
		username += string(digits[rand.Intn(len(digits))])
	}

	return username
}

var operatorRoles = []domain.OperatorRole{
	domain.RoleAdmin,
	domain.RoleOps,
}

func GenerateRandomOperator(password string, emailDomainName string) (*domain.Operator, error) {
	fullName := GenerateRandomChineseName()
	username := GenerateUsernameFromChineseName(fullName)
	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	op := &domain.Operator{
		Username:     username,
		PasswordHash: string(passwordHash),
		FullName:     fullName,
		Email:        username + "@" + emailDomainName,
		Role:         operatorRoles[rand.Intn(len(operatorRoles))],
	}

	return op, nil
}

var letters = []rune("abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%^&*")

func GenerateRandomPassword(length int) string {
	random_password := make([]rune, length)
	for i := range random_password {
		random_password[i] = letters[rand.Intn(len(letters))]
	}
	return string(random_password)
}

// GenerateRandomEmployee 生成一名随机员工的两份记录，邮箱由姓名的拼音得到，两份记录的邮箱一致。
// 员工编号留空，由调用方按部门生成
func GenerateRandomEmployee(emailDomainName string, departments, locations []string) (domain.BasicInfo, domain.Details) {
	fullName := GenerateRandomChineseName()
	email := strings.ToLower(GenerateUsernameFromChineseName(fullName)) + "@" + emailDomainName

	basic := domain.BasicInfo{
		FullName:   fullName,
		Email:      email,
		Role:       domain.EmployeeRoles[rand.Intn(len(domain.EmployeeRoles))],
		Department: pick(departments),
	}
	details := domain.Details{
		Email:          email,
		EmploymentType: domain.EmploymentTypes[rand.Intn(len(domain.EmploymentTypes))],
		Location:       pick(locations),
	}

	return basic, details
}

func pick(values []string) string {
	if len(values) == 0 {
		return "N/A"
	}
	return values[rand.Intn(len(values))]
}
