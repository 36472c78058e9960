package utils

import (
	"testing"
	"unicode/utf8"

	"github.com/hr-onboarding/employee-wizard/backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateRandomEmployee(t *testing.T) {
	departments := []string{"Engineering", "Finance"}
	locations := []string{"Remote"}

	for i := 0; i < 20; i++ {
		basic, details := GenerateRandomEmployee("company.com", departments, locations)

		assert.Equal(t, basic.Email, details.Email)
		assert.Regexp(t, `^[a-z]+[0-9]{1,3}@company\.com$`, basic.Email)
		assert.Contains(t, departments, basic.Department)
		assert.Equal(t, "Remote", details.Location)
		assert.Empty(t, basic.EmployeeID)
		require.NoError(t, ValidateEmployee(&basic, &details, domain.RoleAdmin))
	}
}

func TestGenerateRandomEmployeeWithoutLookups(t *testing.T) {
	basic, details := GenerateRandomEmployee("company.com", nil, nil)
	assert.Equal(t, "N/A", basic.Department)
	assert.Equal(t, "N/A", details.Location)
}

func TestGenerateRandomPassword(t *testing.T) {
	assert.Equal(t, 12, utf8.RuneCountInString(GenerateRandomPassword(12)))
}

func TestValidateEmployee(t *testing.T) {
	valid := func() (domain.BasicInfo, domain.Details) {
		return domain.BasicInfo{FullName: "Jane", Email: "jane@x.com", Role: "Finance", Department: "Finance"},
			domain.Details{Email: "jane@x.com", EmploymentType: "Contract", Location: "HQ"}
	}

	tests := []struct {
		name    string
		role    domain.OperatorRole
		mutate  func(*domain.BasicInfo, *domain.Details)
		wantErr bool
	}{
		{"valid admin", domain.RoleAdmin, func(*domain.BasicInfo, *domain.Details) {}, false},
		{"email mismatch", domain.RoleAdmin, func(b *domain.BasicInfo, d *domain.Details) { d.Email = "other@x.com" }, true},
		{"empty email", domain.RoleOps, func(b *domain.BasicInfo, d *domain.Details) { b.Email, d.Email = "", "" }, true},
		{"unknown role", domain.RoleAdmin, func(b *domain.BasicInfo, d *domain.Details) { b.Role = "CEO" }, true},
		{"ops skips basic fields", domain.RoleOps, func(b *domain.BasicInfo, d *domain.Details) { b.FullName, b.Role, b.Department = "", "", "" }, false},
		{"admin needs department", domain.RoleAdmin, func(b *domain.BasicInfo, d *domain.Details) { b.Department = " " }, true},
		{"missing location", domain.RoleOps, func(b *domain.BasicInfo, d *domain.Details) { d.Location = "" }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, d := valid()
			tt.mutate(&b, &d)
			err := ValidateEmployee(&b, &d, tt.role)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
