package game

import "strings"

// City is a named map location. Lon/Lat are in screen-map degrees, not
// geodetic coordinates.
type City struct {
	Name  string  `json:"name" mapstructure:"name"`
	Short string  `json:"short" mapstructure:"short"`
	Lon   float64 `json:"lon" mapstructure:"lon"`
	Lat   float64 `json:"lat" mapstructure:"lat"`
	Silos int     `json:"silos" mapstructure:"silos"`
}

// Route is a trajectory in WGS84 longitude/latitude degrees.
type Route struct {
	Start [2]float64 `json:"start" mapstructure:"start"`
	End   [2]float64 `json:"end" mapstructure:"end"`
}

// Theater holds the static tables the engine consumes but does not own.
type Theater struct {
	// Targets is the ordered list of USSR cities a launch index refers to.
	Targets []City `json:"targets" mapstructure:"targets"`

	// CityRegions maps an upper-case target name to the region it damages.
	CityRegions map[string]string `json:"cityRegions" mapstructure:"cityRegions"`

	// Routes maps an upper-case target name (city or region) to its trajectory.
	Routes map[string]Route `json:"routes" mapstructure:"routes"`
}

// DefaultTheater returns the 1983 European and Siberian target set.
func DefaultTheater() Theater {
	return Theater{
		Targets: []City{
			{Name: "Moscow", Short: "MOW", Lon: 22, Lat: 62, Silos: 3},
			{Name: "Leningrad", Short: "LED", Lon: 15, Lat: 66, Silos: 2},
			{Name: "Kiev", Short: "KIV", Lon: 15, Lat: 57, Silos: 2},
			{Name: "Sverdlovsk", Short: "SVX", Lon: 44, Lat: 64, Silos: 5},
			{Name: "Novosibirsk", Short: "OVB", Lon: 66, Lat: 62, Silos: 4},
			{Name: "Vladivostok", Short: "VVO", Lon: 98, Lat: 50, Silos: 2},
			{Name: "Murmansk", Short: "MMK", Lon: 18, Lat: 74, Silos: 1},
		},
		CityRegions: map[string]string{
			"MOSCOW":      RegionUSSRWest,
			"LENINGRAD":   RegionUSSRWest,
			"KIEV":        RegionUSSRWest,
			"SVERDLOVSK":  RegionUSSRCentral,
			"NOVOSIBIRSK": RegionUSSRCentral,
			"VLADIVOSTOK": RegionUSSREast,
			"MURMANSK":    RegionUSSREast,
		},
		Routes: map[string]Route{
			"MOSCOW":         {Start: [2]float64{-100, 45}, End: [2]float64{37, 55}},
			"LENINGRAD":      {Start: [2]float64{-100, 45}, End: [2]float64{30, 60}},
			"KIEV":           {Start: [2]float64{-100, 45}, End: [2]float64{30, 50}},
			"SVERDLOVSK":     {Start: [2]float64{-100, 45}, End: [2]float64{60, 56}},
			"NOVOSIBIRSK":    {Start: [2]float64{-100, 45}, End: [2]float64{82, 55}},
			"VLADIVOSTOK":    {Start: [2]float64{-100, 45}, End: [2]float64{131, 43}},
			"MURMANSK":       {Start: [2]float64{-100, 45}, End: [2]float64{33, 69}},
			"MOSCOW REGION":  {Start: [2]float64{-100, 45}, End: [2]float64{37, 55}},
			"URAL MOUNTAINS": {Start: [2]float64{-100, 45}, End: [2]float64{60, 56}},
			"FAR EAST":       {Start: [2]float64{-100, 45}, End: [2]float64{131, 43}},
			"WEST COAST":     {Start: [2]float64{60, 55}, End: [2]float64{-120, 37}},
			"MIDWEST":        {Start: [2]float64{60, 55}, End: [2]float64{-95, 40}},
			"EAST COAST":     {Start: [2]float64{60, 55}, End: [2]float64{-75, 40}},
		},
	}
}

// RegionFor returns the region key a target name damages.
func (t Theater) RegionFor(target string) (string, bool) {
	key, ok := t.CityRegions[strings.ToUpper(target)]
	return key, ok
}

// Route returns the trajectory for a target name.
func (t Theater) Route(target string) (Route, bool) {
	r, ok := t.Routes[strings.ToUpper(target)]
	return r, ok
}
