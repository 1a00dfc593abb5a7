package model

// Setting is a site configuration entry.
type Setting struct {
	Key   string  `json:"key" gorm:"primaryKey;size:64"`
	Value *string `json:"value" gorm:"type:text"`
}

// Site setting keys.
const (
	SettingSchoolName    = "schoolName"
	SettingClassName     = "className"
	SettingSubtitle      = "subtitle"
	SettingTeacherName   = "teacherName"
	SettingContactEmail  = "contactEmail"
	SettingScheduleImage = "scheduleImage"
	SettingSchedule      = "schedule"
)

// SiteInfo is the public header information of the site.
type SiteInfo struct {
	SchoolName    *string `json:"schoolName"`
	ClassName     *string `json:"className"`
	Subtitle      *string `json:"subtitle"`
	TeacherName   *string `json:"teacherName"`
	ContactEmail  *string `json:"contactEmail" validate:"omitempty,email"`
	ScheduleImage *string `json:"scheduleImage"`
}
