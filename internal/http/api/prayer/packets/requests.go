package packets

// UpdatePreferencesRequest replaces the user's location and quiet hours.
// Either city and country or latitude and longitude must be present.
type UpdatePreferencesRequest struct {
	City       string   `json:"city"`
	Country    string   `json:"country"`
	Latitude   *float64 `json:"latitude"  binding:"omitempty,min=-90,max=90"`
	Longitude  *float64 `json:"longitude" binding:"omitempty,min=-180,max=180"`
	Method     int      `json:"method"    binding:"omitempty,min=0,max=99"`
	Timezone   string   `json:"timezone"`
	QuietStart *string  `json:"quiet_start"`
	QuietEnd   *string  `json:"quiet_end"`
}

type SetNotificationsRequest struct {
	Enabled *bool `json:"enabled" binding:"required"`
}

type SetPermissionRequest struct {
	Permission string `json:"permission" binding:"required,oneof=default granted denied unsupported"`
}

type LogPrayerRequest struct {
	Prayer     string  `json:"prayer" binding:"required"`
	Date       string  `json:"date"`
	Status     string  `json:"status" binding:"required,oneof=completed missed"`
	ActualTime *string `json:"actual_time"`
}
