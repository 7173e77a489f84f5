package models

import "time"

// Reading измерение датчика зоны, приходящее через /api/iot/ingest
type Reading struct {
	ID          string    `json:"id,omitempty"`
	Zone        string    `json:"zone" validate:"required,oneof=centre industrie nord"`
	RecordedAt  time.Time `json:"recorded_at"`
	PM25        float64   `json:"pm25" validate:"gte=0,lte=1000"`
	PM10        float64   `json:"pm10" validate:"gte=0,lte=1000"`
	NO2         float64   `json:"no2" validate:"gte=0,lte=1000"`
	O3          float64   `json:"o3" validate:"gte=0,lte=1000"`
	AQI         int       `json:"aqi" validate:"gte=0,lte=500"`
	Temperature float64   `json:"temperature" validate:"gte=-50,lte=60"`
	Humidity    float64   `json:"humidity" validate:"gte=0,lte=100"`
	Wind        float64   `json:"wind" validate:"gte=0,lte=200"`
	Source      string    `json:"source,omitempty"`
}

// Value значение загрязнителя по коду (PM25, PM10, NO2, O3)
func (r Reading) Value(code string) (float64, bool) {
	switch code {
	case "PM25":
		return r.PM25, true
	case "PM10":
		return r.PM10, true
	case "NO2":
		return r.NO2, true
	case "O3":
		return r.O3, true
	}
	return 0, false
}

// Alert оповещение о превышении порога
type Alert struct {
	ID        string  `json:"id"`
	Title     string  `json:"title"`
	Message   string  `json:"message"`
	Zone      string  `json:"zone"`
	Time      string  `json:"time"`
	People    int     `json:"people"`
	Pollutant string  `json:"pollutant"`
	Value     float64 `json:"value"`
	Unit      string  `json:"unit"`
	Threshold float64 `json:"threshold"`
	Critical  bool    `json:"critical"`
	Read      bool    `json:"read"`
}

// Thresholds пороги оповещений, µg/m³
type Thresholds struct {
	PM25 float64 `json:"pm25" validate:"gt=0"`
	PM10 float64 `json:"pm10" validate:"gt=0"`
	NO2  float64 `json:"no2" validate:"gt=0"`
}

// Settings пользовательские настройки панели
type Settings struct {
	NotificationsEmail bool       `json:"notificationsEmail"`
	NotificationsInApp bool       `json:"notificationsInApp"`
	Thresholds         Thresholds `json:"thresholds"`
	PreferredView      string     `json:"preferredView" validate:"omitempty,oneof=dashboard carte predictions rapports parametres"`
}

// DefaultSettings значения по умолчанию
func DefaultSettings() Settings {
	return Settings{
		NotificationsEmail: true,
		NotificationsInApp: true,
		Thresholds:         Thresholds{PM25: 50, PM10: 80, NO2: 200},
		PreferredView:      "dashboard",
	}
}

// User пользователь демо-режима
type User struct {
	Email   string `json:"email"`
	Name    string `json:"name"`
	Persona string `json:"persona"`
	Role    string `json:"role"`
}

// LoginRequest тело POST /api/auth/login
type LoginRequest struct {
	Email    string `json:"email" validate:"omitempty,email"`
	Password string `json:"password"`
	Persona  string `json:"persona" validate:"omitempty,oneof=env elected citizen"`
}

// LoginResponse ответ на успешный вход
type LoginResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// ReportRequest параметры отчета
type ReportRequest struct {
	Zone      string `json:"zone" validate:"omitempty,oneof=all centre industrie nord"`
	Pollutant string `json:"pollutant" validate:"omitempty,oneof=PM25 PM2.5 PM10 NO2 O3 SO2"`
	Days      int    `json:"days" validate:"omitempty,oneof=1 7 30"`
}

// ReportInfo сведения о сохраненном отчете
type ReportInfo struct {
	ID       string    `json:"id"`
	FileName string    `json:"fileName"`
	Pages    int       `json:"pages"`
	Size     int       `json:"size"`
	Created  time.Time `json:"created"`
}
