// Package routes writes simulator person route files for the bus and the
// shuttle scenarios and reads them back for analysis.
package routes

import (
	"encoding/xml"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"

	"transit-demand/internal/simxml"
)

const (
	xsiNamespace  = "http://www.w3.org/2001/XMLSchema-instance"
	routesSchema  = "http://sumo.dlr.de/xsd/routes_file.xsd"
	boardingDwell = "0.10"
	ShuttleLine   = "taxi"
	defaultIndent = "    "
)

// Routes is the document root of a route file.
type Routes struct {
	XMLName xml.Name `xml:"routes"`
	XSI     string   `xml:"xmlns:xsi,attr,omitempty"`
	Schema  string   `xml:"xsi:noNamespaceSchemaLocation,attr,omitempty"`
	Persons []Person `xml:"person"`
}

type Person struct {
	ID        string `xml:"id,attr"`
	Depart    string `xml:"depart,attr"`
	DepartPos string `xml:"departPos,attr,omitempty"`
	Steps     []Step `xml:",any"`
}

// Step is one plan element of a person: a stop or a ride. XMLName carries
// the element name.
type Step struct {
	XMLName  xml.Name
	From     string `xml:"from,attr,omitempty"`
	To       string `xml:"to,attr,omitempty"`
	BusStop  string `xml:"busStop,attr,omitempty"`
	Lane     string `xml:"lane,attr,omitempty"`
	Duration string `xml:"duration,attr,omitempty"`
	Lines    string `xml:"lines,attr,omitempty"`
}

func (s Step) IsRide() bool { return s.XMLName.Local == "ride" }

// Rides returns the person's ride steps in plan order.
func (p Person) Rides() []Step {
	var out []Step
	for _, s := range p.Steps {
		if s.IsRide() {
			out = append(out, s)
		}
	}
	return out
}

func New() *Routes {
	return &Routes{XSI: xsiNamespace, Schema: routesSchema}
}

func stop(attrs Step) Step {
	attrs.XMLName = xml.Name{Local: "stop"}
	return attrs
}

func ride(attrs Step) Step {
	attrs.XMLName = xml.Name{Local: "ride"}
	return attrs
}

// FormatTime renders a simulation time with at most two decimals.
func FormatTime(v float64) string {
	return strconv.FormatFloat(math.Round(v*100)/100, 'f', -1, 64)
}

// Encode writes the document with an XML header and four-space indentation.
func (r *Routes) Encode(w io.Writer) error {
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", defaultIndent)
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("encode routes: %w", err)
	}
	if err := enc.Close(); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}

func (r *Routes) WriteFile(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := r.Encode(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

// ReadPersons streams the person elements of a route file.
func ReadPersons(r io.Reader) ([]Person, error) {
	var persons []Person
	err := simxml.Walk(r, map[string]simxml.ElementFunc{"person": simxml.Collect(&persons)})
	return persons, err
}

func LoadPersons(path string) ([]Person, error) {
	var persons []Person
	err := simxml.WalkFile(path, map[string]simxml.ElementFunc{"person": simxml.Collect(&persons)})
	return persons, err
}
