package geomodel

import (
	"github.com/mailru/easyjson"
	"github.com/mailru/easyjson/jlexer"
)

var (
	_ easyjson.Unmarshaler = (*AirportList)(nil)
	_ easyjson.Unmarshaler = (*CityMatches)(nil)
	_ easyjson.Unmarshaler = (*PlaceAirports)(nil)
)

func (a *NearestAirport) UnmarshalEasyJSON(in *jlexer.Lexer) {
	if in.IsNull() {
		in.Skip()
		return
	}
	in.Delim('{')
	for !in.IsDelim('}') {
		key := in.UnsafeFieldName(false)
		in.WantColon()
		if in.IsNull() {
			in.Skip()
			in.WantComma()
			continue
		}
		switch key {
		case "code":
			a.Code = in.String()
		case "name":
			a.Name = in.String()
		case "state":
			a.State = in.String()
		case "latitude":
			a.Lat = in.Float64()
		case "longitude":
			a.Lon = in.Float64()
		case "distance":
			a.Distance = in.Float64()
		default:
			in.SkipRecursive()
		}
		in.WantComma()
	}
	in.Delim('}')
}

// UnmarshalEasyJSON fills the list in order, extra elements are ignored.
func (l *AirportList) UnmarshalEasyJSON(in *jlexer.Lexer) {
	if in.IsNull() {
		in.Skip()
		return
	}
	in.Delim('[')
	for i := 0; !in.IsDelim(']'); i++ {
		if i < len(l) {
			l[i].UnmarshalEasyJSON(in)
		} else {
			in.SkipRecursive()
		}
		in.WantComma()
	}
	in.Delim(']')
}

func (l *AirportList) UnmarshalJSON(data []byte) error {
	in := jlexer.Lexer{Data: data}
	l.UnmarshalEasyJSON(&in)
	in.Consumed()
	return in.Error()
}

func (c *City) UnmarshalEasyJSON(in *jlexer.Lexer) {
	if in.IsNull() {
		in.Skip()
		return
	}
	in.Delim('{')
	for !in.IsDelim('}') {
		key := in.UnsafeFieldName(false)
		in.WantColon()
		if in.IsNull() {
			in.Skip()
			in.WantComma()
			continue
		}
		switch key {
		case "name":
			c.Name = in.String()
		case "state":
			c.State = in.String()
		case "latitude":
			c.Lat = in.Float64()
		case "longitude":
			c.Lon = in.Float64()
		default:
			in.SkipRecursive()
		}
		in.WantComma()
	}
	in.Delim('}')
}

func (m *CityMatches) UnmarshalEasyJSON(in *jlexer.Lexer) {
	if in.IsNull() {
		in.Skip()
		return
	}
	in.Delim('{')
	for !in.IsDelim('}') {
		key := in.UnsafeFieldName(false)
		in.WantColon()
		if in.IsNull() {
			in.Skip()
			in.WantComma()
			continue
		}
		switch key {
		case "ambiguous":
			m.Ambiguous = in.Bool()
		case "places":
			m.Places = m.Places[:0]
			in.Delim('[')
			for !in.IsDelim(']') {
				var c City
				c.UnmarshalEasyJSON(in)
				m.Places = append(m.Places, c)
				in.WantComma()
			}
			in.Delim(']')
		default:
			in.SkipRecursive()
		}
		in.WantComma()
	}
	in.Delim('}')
}

func (p *PlaceAirports) UnmarshalEasyJSON(in *jlexer.Lexer) {
	if in.IsNull() {
		in.Skip()
		return
	}
	in.Delim('{')
	for !in.IsDelim('}') {
		key := in.UnsafeFieldName(false)
		in.WantColon()
		switch key {
		case "place":
			p.Place.UnmarshalEasyJSON(in)
		case "airports":
			p.Airports.UnmarshalEasyJSON(in)
		default:
			in.SkipRecursive()
		}
		in.WantComma()
	}
	in.Delim('}')
}
