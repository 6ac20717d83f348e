package infoplus

import (
	"encoding/xml"
	"errors"
	"strings"
)

// StopType is the stationnement tag of one stop within a trip segment.
type StopType string

const (
	StopTypeStop          StopType = "X"
	StopTypePassage       StopType = "D"
	StopTypeBoardingOnly  StopType = "I"
	StopTypeAlightingOnly StopType = "U"
	StopTypeServiceStop   StopType = "R"
)

// RollingStockUnit is one physical unit of the consist at one stop.
type RollingStockUnit struct {
	ID                string `xml:"MaterieelDeelID"`
	Kind              string `xml:"MaterieelDeelSoort"`
	Designation       string `xml:"MaterieelDeelAanduiding"`
	Length            string `xml:"MaterieelDeelLengte"`
	DeparturePosition string `xml:"MaterieelDeelVertrekPositie"`
	DepartureOrder    string `xml:"MaterieelDeelVolgordeVertrek"`
	Number            string `xml:"MaterieelNummer"`
	Accessible        string `xml:"MaterieelDeelToegankelijk"`

	// J when the unit is uncoupled here and does not depart with the train.
	RemainsBehind string `xml:"AchterBlijvenMaterieelDeel"`
}

// RitStop is one station visit within a trip segment.
type RitStop struct {
	Station Station `xml:"Station"`

	StopType StopType `xml:"StationnementType"`

	StopsValues            []TextValue `xml:"Stopt"`
	ArrivalTimeValues      []TextValue `xml:"AankomstTijd"`
	ArrivalPlatformValues  []Platform  `xml:"TreinAankomstSpoor"`
	DepartureTimeValues    []TextValue `xml:"VertrekTijd"`
	DeparturePlatformValues []Platform `xml:"TreinVertrekSpoor"`

	DoNotBoard string `xml:"NietInstappen"`

	RollingStock []RollingStockUnit `xml:"MaterieelDeel"`
	Changes      []Change           `xml:"Wijziging"`
}

// StationCode returns the stop's station code in the lower-cased form used
// as the stable stop identity across reconciliations.
func (s *RitStop) StationCode() string {
	return strings.ToLower(s.Station.Code)
}

func (s *RitStop) Stops() PlannedActual[TextValue] {
	return resolveTextViews(s.StopsValues)
}

func (s *RitStop) ArrivalTime() PlannedActual[TextValue] {
	return resolveTextViews(s.ArrivalTimeValues)
}

func (s *RitStop) DepartureTime() PlannedActual[TextValue] {
	return resolveTextViews(s.DepartureTimeValues)
}

func (s *RitStop) ArrivalPlatform() PlannedActual[Platform] {
	return resolvePlatformViews(s.ArrivalPlatformValues)
}

func (s *RitStop) DeparturePlatform() PlannedActual[Platform] {
	return resolvePlatformViews(s.DeparturePlatformValues)
}

// RitSegment is a sub-range of a logical trip sharing one train number.
type RitSegment struct {
	TrainNumber string    `xml:"LogischeRitDeelNummer"`
	Stops       []RitStop `xml:"LogischeRitDeelStation"`
	Changes     []Change  `xml:"Wijziging"`
}

// RitTrip is one logical trip: one or more segments, usually exactly one.
type RitTrip struct {
	TrainNumber string       `xml:"LogischeRitNummer"`
	Segments    []RitSegment `xml:"LogischeRitDeel"`
	Changes     []Change     `xml:"Wijziging"`
}

type TrainType struct {
	Code string `xml:"Code,attr"`
	Name string `xml:",chardata"`
}

type RitInfo struct {
	TrainNumber string    `xml:"TreinNummer"`
	TrainDate   string    `xml:"TreinDatum"`
	TrainType   TrainType `xml:"TreinSoort"`
	Provider    string    `xml:"Vervoerder"`

	Trips []RitTrip `xml:"LogischeRit"`
}

// ProductAdministration carries the message identity and publication
// timestamp used for staleness checks and journey source tracking.
type ProductAdministration struct {
	ProductID string `xml:"ReisInformatieProductID"`
	Timestamp string `xml:"ReisInformatieTijdstip"`
}

type RitMessage struct {
	XMLName xml.Name `xml:"PutReisInformatieBoodschapIn"`

	Administration ProductAdministration `xml:"ReisInformatieProductRitInfo>RIPAdministratie"`
	RitInfo        RitInfo               `xml:"ReisInformatieProductRitInfo>RitInfo"`
}

// ParseRitMessage decodes one trip-composition message.
func ParseRitMessage(raw []byte) (*RitMessage, error) {
	var message RitMessage
	if err := xml.Unmarshal(raw, &message); err != nil {
		return nil, err
	}

	info := &message.RitInfo
	if info.TrainNumber == "" || info.TrainDate == "" {
		return nil, errors.New("rit message is missing a train number or running date")
	}
	if len(info.Trips) == 0 {
		return nil, errors.New("rit message contains no logical trip")
	}

	return &message, nil
}
