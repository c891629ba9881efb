package geo

import "math"

// earthRadiusKm — радиус Земли в километрах.
const earthRadiusKm = 6371.0

// DistanceKm возвращает расстояние по дуге большого круга между двумя
// точками (широта/долгота в градусах) по формуле гаверсинуса.
func DistanceKm(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180

	lat1Rad := lat1 * math.Pi / 180
	lat2Rad := lat2 * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Sin(dLon/2)*math.Sin(dLon/2)*math.Cos(lat1Rad)*math.Cos(lat2Rad)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * c
}

// RoundKm округляет расстояние до одного знака после запятой.
func RoundKm(km float64) float64 {
	return math.Round(km*10) / 10
}

// ValidCoordinates проверяет, что координаты лежат в допустимых пределах.
func ValidCoordinates(lat, lon float64) bool {
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}
