package kml

// The xml types below mirror the subset of the KML 2.2 schema the reader
// understands. Struct tags carry no namespace so documents using the default
// http://www.opengis.net/kml/2.2 namespace (or none) both decode.

type xmlRoot struct {
	Document   *xmlContainer  `xml:"Document"`
	Folders    []xmlContainer `xml:"Folder"`
	Placemarks []xmlPlacemark `xml:"Placemark"`
}

type xmlContainer struct {
	Name       string         `xml:"name"`
	Documents  []xmlContainer `xml:"Document"`
	Folders    []xmlContainer `xml:"Folder"`
	Placemarks []xmlPlacemark `xml:"Placemark"`
}

type xmlPlacemark struct {
	Name          string           `xml:"name"`
	Description   string           `xml:"description"`
	Point         *xmlPoint        `xml:"Point"`
	LineString    *xmlLineString   `xml:"LineString"`
	Polygon       *xmlPolygon      `xml:"Polygon"`
	MultiGeometry *xmlMulti        `xml:"MultiGeometry"`
	ExtendedData  *xmlExtendedData `xml:"ExtendedData"`
}

type xmlPoint struct {
	Coordinates string `xml:"coordinates"`
}

type xmlLineString struct {
	Coordinates string `xml:"coordinates"`
}

type xmlPolygon struct {
	Outer string   `xml:"outerBoundaryIs>LinearRing>coordinates"`
	Inner []string `xml:"innerBoundaryIs>LinearRing>coordinates"`
}

type xmlMulti struct {
	Points      []xmlPoint      `xml:"Point"`
	LineStrings []xmlLineString `xml:"LineString"`
	Polygons    []xmlPolygon    `xml:"Polygon"`
}

type xmlExtendedData struct {
	Data       []xmlData       `xml:"Data"`
	SchemaData []xmlSchemaData `xml:"SchemaData"`
}

type xmlData struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value"`
}

type xmlSchemaData struct {
	SimpleData []xmlSimpleData `xml:"SimpleData"`
}

type xmlSimpleData struct {
	Name  string `xml:"name,attr"`
	Value string `xml:",chardata"`
}
