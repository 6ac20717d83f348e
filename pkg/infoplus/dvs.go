package infoplus

import (
	"encoding/xml"
	"errors"
)

// TrainDeparture is the dynamic departure state of one train at one station.
type TrainDeparture struct {
	TrainNumber string    `xml:"TreinNummer"`
	TrainType   TrainType `xml:"TreinSoort"`
	Status      string    `xml:"TreinStatus"`
	Provider    string    `xml:"Vervoerder"`

	DepartureTimeValues     []TextValue `xml:"VertrekTijd"`
	DeparturePlatformValues []Platform  `xml:"TreinVertrekSpoor"`

	ExactDepartureDelay string `xml:"ExacteVertrekVertraging"`
	DoNotBoard          string `xml:"NietInstappen"`
}

func (d *TrainDeparture) DepartureTime() PlannedActual[TextValue] {
	return resolveTextViews(d.DepartureTimeValues)
}

func (d *TrainDeparture) DeparturePlatform() PlannedActual[Platform] {
	return resolvePlatformViews(d.DeparturePlatformValues)
}

type DvsMessage struct {
	XMLName xml.Name `xml:"PutReisInformatieBoodschapIn"`

	TrainNumber string         `xml:"ReisInformatieProductDVS>DynamischeVertrekStaat>RitId"`
	RunningOn   string         `xml:"ReisInformatieProductDVS>DynamischeVertrekStaat>RitDatum"`
	Station     Station        `xml:"ReisInformatieProductDVS>DynamischeVertrekStaat>RitStation"`
	Departure   TrainDeparture `xml:"ReisInformatieProductDVS>DynamischeVertrekStaat>Trein"`
}

// ParseDvsMessage decodes one departure-status message.
func ParseDvsMessage(raw []byte) (*DvsMessage, error) {
	var message DvsMessage
	if err := xml.Unmarshal(raw, &message); err != nil {
		return nil, err
	}

	if message.TrainNumber == "" || message.RunningOn == "" || message.Station.Code == "" {
		return nil, errors.New("dvs message is missing its journey identity")
	}

	return &message, nil
}
