package infoplus

import (
	"encoding/xml"
)

// TrainLocationUnit is one GPS sample for one rolling-stock unit.
type TrainLocationUnit struct {
	UnitNumber     string `xml:"MaterieelDeelNummer"`
	Sequence       string `xml:"Materieelvolgnummer"`
	Timestamp      string `xml:"GpsDatumTijd"`
	Latitude       string `xml:"Latitude"`
	Longitude      string `xml:"Longitude"`
	Speed          string `xml:"Snelheid"`
	Heading        string `xml:"Richting"`
	Elevation      string `xml:"Elevation"`
	SatelliteCount string `xml:"AantalSatelieten"`
}

type TrainLocation struct {
	TrainNumber string              `xml:"TreinNummer"`
	Units       []TrainLocationUnit `xml:"TreinMaterieelDelen"`
}

type PosMessage struct {
	XMLName xml.Name `xml:"ArrayOfTreinLocation"`

	Locations []TrainLocation `xml:"TreinLocation"`
}

// ParsePosMessage decodes one train-position message.
func ParsePosMessage(raw []byte) (*PosMessage, error) {
	var message PosMessage
	if err := xml.Unmarshal(raw, &message); err != nil {
		return nil, err
	}

	return &message, nil
}
