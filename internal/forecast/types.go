package forecast

// Coord is a geographic position.
type Coord struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Condition is one entry of the provider's "weather" array.
type Condition struct {
	ID          int    `json:"id"`
	Main        string `json:"main"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

// MainReadings holds temperature, pressure and humidity. Temperatures are in
// Celsius because requests use metric units.
type MainReadings struct {
	Temp      float64 `json:"temp"`
	FeelsLike float64 `json:"feels_like"`
	TempMin   float64 `json:"temp_min"`
	TempMax   float64 `json:"temp_max"`
	Pressure  int     `json:"pressure"`
	Humidity  int     `json:"humidity"`
}

// Wind holds speed in m/s and direction in degrees.
type Wind struct {
	Speed float64 `json:"speed"`
	Deg   int     `json:"deg"`
	Gust  float64 `json:"gust,omitempty"`
}

// Clouds is the cloud cover percentage.
type Clouds struct {
	All int `json:"all"`
}

// Sys holds country and sunrise/sunset times as Unix seconds.
type Sys struct {
	Country string `json:"country"`
	Sunrise int64  `json:"sunrise"`
	Sunset  int64  `json:"sunset"`
}

// CurrentWeatherForecastResponse is the body of /data/2.5/weather.
type CurrentWeatherForecastResponse struct {
	ID         int          `json:"id"`
	Name       string       `json:"name"`
	Coord      Coord        `json:"coord"`
	Weather    []Condition  `json:"weather"`
	Main       MainReadings `json:"main"`
	Visibility int          `json:"visibility"`
	Wind       Wind         `json:"wind"`
	Clouds     Clouds       `json:"clouds"`
	Sys        Sys          `json:"sys"`
	Dt         int64        `json:"dt"`
	Timezone   int          `json:"timezone"`
}

// ForecastItem is one 3-hour step of the weekly forecast.
type ForecastItem struct {
	Dt      int64        `json:"dt"`
	Main    MainReadings `json:"main"`
	Weather []Condition  `json:"weather"`
	Wind    Wind         `json:"wind"`
	Clouds  Clouds       `json:"clouds"`
	// Pop is the probability of precipitation, 0..1.
	Pop   float64 `json:"pop"`
	DtTxt string  `json:"dt_txt"`
}

// ForecastCity describes the location of a weekly forecast.
type ForecastCity struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Coord    Coord  `json:"coord"`
	Country  string `json:"country"`
	Timezone int    `json:"timezone"`
	Sunrise  int64  `json:"sunrise"`
	Sunset   int64  `json:"sunset"`
}

// WeeklyForecastResponse is the body of /data/2.5/forecast.
type WeeklyForecastResponse struct {
	Cod  string         `json:"cod"`
	Cnt  int            `json:"cnt"`
	List []ForecastItem `json:"list"`
	City ForecastCity   `json:"city"`
}
