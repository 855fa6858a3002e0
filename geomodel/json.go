package geomodel

import (
	"github.com/mailru/easyjson"
	"github.com/mailru/easyjson/jwriter"
)

var (
	_ easyjson.Marshaler = Airport{}
	_ easyjson.Marshaler = City{}
	_ easyjson.Marshaler = NearestAirport{}
	_ easyjson.Marshaler = (*AirportList)(nil)
	_ easyjson.Marshaler = CityMatches{}
	_ easyjson.Marshaler = PlaceAirports{}
)

func writeLocation(w *jwriter.Writer, l Location) {
	w.RawString(`"latitude":`)
	w.Float64(l.Lat)
	w.RawString(`,"longitude":`)
	w.Float64(l.Lon)
}

func writeAirportFields(w *jwriter.Writer, a Airport) {
	w.RawString(`"code":`)
	w.String(a.Code)
	w.RawString(`,"name":`)
	w.String(a.Name)
	w.RawString(`,"state":`)
	w.String(a.State)
	w.RawByte(',')
	writeLocation(w, a.Location)
}

func (a Airport) MarshalEasyJSON(w *jwriter.Writer) {
	w.RawByte('{')
	writeAirportFields(w, a)
	w.RawByte('}')
}

func (a Airport) MarshalJSON() ([]byte, error) {
	w := jwriter.Writer{}
	a.MarshalEasyJSON(&w)
	return w.BuildBytes()
}

func (c City) MarshalEasyJSON(w *jwriter.Writer) {
	w.RawString(`{"name":`)
	w.String(c.Name)
	w.RawString(`,"state":`)
	w.String(c.State)
	w.RawByte(',')
	writeLocation(w, c.Location)
	w.RawByte('}')
}

func (c City) MarshalJSON() ([]byte, error) {
	w := jwriter.Writer{}
	c.MarshalEasyJSON(&w)
	return w.BuildBytes()
}

func (a NearestAirport) MarshalEasyJSON(w *jwriter.Writer) {
	w.RawByte('{')
	writeAirportFields(w, a.Airport)
	w.RawString(`,"distance":`)
	w.Float64(a.Distance)
	w.RawByte('}')
}

func (a NearestAirport) MarshalJSON() ([]byte, error) {
	w := jwriter.Writer{}
	a.MarshalEasyJSON(&w)
	return w.BuildBytes()
}

func (l *AirportList) MarshalEasyJSON(w *jwriter.Writer) {
	w.RawByte('[')
	for i := range l {
		if i > 0 {
			w.RawByte(',')
		}
		l[i].MarshalEasyJSON(w)
	}
	w.RawByte(']')
}

func (l AirportList) MarshalJSON() ([]byte, error) {
	w := jwriter.Writer{}
	l.MarshalEasyJSON(&w)
	return w.BuildBytes()
}

// WriteNearestList writes a JSON array of airports.
func WriteNearestList(w *jwriter.Writer, airports []NearestAirport) {
	w.RawByte('[')
	for i := range airports {
		if i > 0 {
			w.RawByte(',')
		}
		airports[i].MarshalEasyJSON(w)
	}
	w.RawByte(']')
}

// WriteAirportLists writes a JSON array of fixed size airport lists.
func WriteAirportLists(w *jwriter.Writer, lists []AirportList) {
	w.RawByte('[')
	for i := range lists {
		if i > 0 {
			w.RawByte(',')
		}
		lists[i].MarshalEasyJSON(w)
	}
	w.RawByte(']')
}

func (m CityMatches) MarshalEasyJSON(w *jwriter.Writer) {
	w.RawString(`{"ambiguous":`)
	w.Bool(m.Ambiguous)
	w.RawString(`,"places":`)
	if m.Places == nil {
		w.RawString("null")
	} else {
		w.RawByte('[')
		for i := range m.Places {
			if i > 0 {
				w.RawByte(',')
			}
			m.Places[i].MarshalEasyJSON(w)
		}
		w.RawByte(']')
	}
	w.RawByte('}')
}

func (m CityMatches) MarshalJSON() ([]byte, error) {
	w := jwriter.Writer{}
	m.MarshalEasyJSON(&w)
	return w.BuildBytes()
}

func (p PlaceAirports) MarshalEasyJSON(w *jwriter.Writer) {
	w.RawString(`{"place":`)
	p.Place.MarshalEasyJSON(w)
	w.RawString(`,"airports":`)
	p.Airports.MarshalEasyJSON(w)
	w.RawByte('}')
}

func (p PlaceAirports) MarshalJSON() ([]byte, error) {
	w := jwriter.Writer{}
	p.MarshalEasyJSON(&w)
	return w.BuildBytes()
}
