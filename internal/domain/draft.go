package domain

// WizardFormData 是向导表单的全部字段，草稿按角色保存这一结构
type WizardFormData struct {
	FullName       string `json:"fullName"`
	Email          string `json:"email"`
	Role           string `json:"role"`
	Department     string `json:"department"`
	EmployeeID     string `json:"employeeId"`
	Photo          string `json:"photo"`
	EmploymentType string `json:"employmentType"`
	Location       string `json:"location"`
	Notes          string `json:"notes"`
}

func (f WizardFormData) BasicInfo() BasicInfo {
	return BasicInfo{
		FullName:   f.FullName,
		Email:      f.Email,
		Role:       f.Role,
		Department: f.Department,
		EmployeeID: f.EmployeeID,
	}
}

func (f WizardFormData) Details() Details {
	return Details{
		Email:          f.Email,
		Photo:          f.Photo,
		EmploymentType: f.EmploymentType,
		Location:       f.Location,
		Notes:          f.Notes,
	}
}
