package landmark

import "github.com/baywoodland/woodland/internal/geo"

// Defaults returns the site's landmarks in notification priority order.
func Defaults() []Landmark {
	return []Landmark{
		{
			Name:        "Farmhouse",
			Position:    geo.Point{Lat: 44.626430, Lng: -63.923172},
			Description: "What's left of a small farmhouse that once stood here, now quiet and softened by moss and trees.",
			Image:       "/assets/FarmHouse.jpg",
		},
		{
			Name:        "Entrance",
			Position:    geo.Point{Lat: 44.626556, Lng: -63.923382},
			Description: "The main entrance overlooking the bay, surrounded by birch and spruce trees. This starting point gives visitors their first glimpse of the natural beauty of the site.",
			Image:       "/assets/Entrance.jpg",
		},
		{
			Name:        "Natural burial",
			Position:    geo.Point{Lat: 44.625050, Lng: -63.921247},
			Description: "A quiet, designated area for natural burials, surrounded by trees and native plants.",
		},
		{
			Name:        "Labyrinth Entrance",
			Position:    geo.Point{Lat: 44.624081, Lng: -63.919488},
			Description: "Entrance to the woodland labyrinth, marked by open pathways and fallen logs. This area begins the circular walking route used for reflection and mindfulness.",
			Image:       "/assets/Labyrinth.jpg",
		},
		{
			Name:        "Birch Forest",
			Position:    geo.Point{Lat: 44.624640, Lng: -63.920329},
			Description: "A quiet birch grove filled with golden leaves, mossy rocks, and tall slender trees. One of the most scenic spots in the woodland conservation area.",
			Image:       "/assets/BirchTrees.jpg",
		},
		{
			Name:        "Dock",
			Position:    geo.Point{Lat: 44.620829, Lng: -63.914325},
			Description: "This dock provides a scenic viewpoint over the bay. Visitors often stop here to enjoy the water, the breeze, and the surrounding coastal landscape.",
			Image:       "/assets/Dock.jpg",
		},
	}
}
