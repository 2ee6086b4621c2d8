package geo

import "github.com/golang/geo/s2"

// Bound 计算一组 [lat, lon] 点的外接矩形，点集为空时 ok 为 false
func Bound(points [][2]float64) (rect s2.Rect, ok bool) {
	rect = s2.EmptyRect()
	for _, p := range points {
		rect = rect.AddPoint(s2.LatLngFromDegrees(p[0], p[1]))
	}
	return rect, !rect.IsEmpty()
}
