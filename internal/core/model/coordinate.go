package model

import (
	"fmt"
	"math"
)

// GeoCoordinates 表示一个IP的地理坐标
type GeoCoordinates struct {
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	City    string  `json:"city,omitempty"`
	Country string  `json:"country,omitempty"`
}

// Validate 检查经纬度范围
func (g GeoCoordinates) Validate() error {
	if math.IsNaN(g.Lat) || g.Lat < -90 || g.Lat > 90 {
		return fmt.Errorf("纬度超出范围[-90,90]: %v", g.Lat)
	}
	if math.IsNaN(g.Lon) || g.Lon < -180 || g.Lon > 180 {
		return fmt.Errorf("经度超出范围[-180,180]: %v", g.Lon)
	}
	return nil
}

// CoordinateRecord 表示一条以IP为键的坐标记录
type CoordinateRecord struct {
	IP          string
	Coordinates GeoCoordinates
}
