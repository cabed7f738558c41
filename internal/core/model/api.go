package model

// HealthStatus 健康状态
type HealthStatus string

const (
	// HealthStatusHealthy 表示服务健康
	HealthStatusHealthy HealthStatus = "healthy"
)

// ErrorResponse 统一的错误响应
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// RootResponse 服务根路径返回的基本信息
type RootResponse struct {
	Service string `json:"service"`
	Status  string `json:"status"`
	Version string `json:"version"`
}

// HealthResponse 健康检查响应，RedisConnected只由存储服务返回
type HealthResponse struct {
	Status         HealthStatus `json:"status"`
	Service        string       `json:"service"`
	RedisConnected *bool        `json:"redis_connected,omitempty"`
}

// ResolveRequest 解析IP的请求
type ResolveRequest struct {
	IP string `json:"ip" validate:"required,ipv4quad"`
}

// LatLon 解析结果中返回的经纬度
type LatLon struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// ResolveResponse 解析IP的响应
type ResolveResponse struct {
	Success     bool    `json:"success"`
	Message     string  `json:"message"`
	IP          string  `json:"ip"`
	Coordinates *LatLon `json:"coordinates,omitempty"`
}

// CoordinatePayload 存储服务接收的坐标，经纬度用指针区分缺失和0
type CoordinatePayload struct {
	IP      string   `json:"ip" validate:"required,ipv4quad"`
	Lat     *float64 `json:"lat" validate:"required,gte=-90,lte=90"`
	Lon     *float64 `json:"lon" validate:"required,gte=-180,lte=180"`
	City    string   `json:"city,omitempty"`
	Country string   `json:"country,omitempty"`
}

// NewCoordinatePayload 由坐标记录构造请求体
func NewCoordinatePayload(record CoordinateRecord) CoordinatePayload {
	lat, lon := record.Coordinates.Lat, record.Coordinates.Lon
	return CoordinatePayload{
		IP:      record.IP,
		Lat:     &lat,
		Lon:     &lon,
		City:    record.Coordinates.City,
		Country: record.Coordinates.Country,
	}
}

// Record 转换为坐标记录，调用前需已通过校验
func (p CoordinatePayload) Record() CoordinateRecord {
	return CoordinateRecord{
		IP: p.IP,
		Coordinates: GeoCoordinates{
			Lat:     *p.Lat,
			Lon:     *p.Lon,
			City:    p.City,
			Country: p.Country,
		},
	}
}

// StoreResponse 存储坐标的响应
type StoreResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	IP      string `json:"ip"`
}

// CoordinateItem 列表中的一条坐标
type CoordinateItem struct {
	IP      string  `json:"ip"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	City    string  `json:"city,omitempty"`
	Country string  `json:"country,omitempty"`
}

// NewCoordinateItem 由坐标记录构造列表项
func NewCoordinateItem(record CoordinateRecord) CoordinateItem {
	return CoordinateItem{
		IP:      record.IP,
		Lat:     record.Coordinates.Lat,
		Lon:     record.Coordinates.Lon,
		City:    record.Coordinates.City,
		Country: record.Coordinates.Country,
	}
}

// AllCoordinatesResponse 坐标列表响应
type AllCoordinatesResponse struct {
	Count       int              `json:"count"`
	Coordinates []CoordinateItem `json:"coordinates"`
}
