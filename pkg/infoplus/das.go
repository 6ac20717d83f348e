package infoplus

import (
	"encoding/xml"
	"errors"
)

// TrainArrival is the dynamic arrival state of one train at one station.
type TrainArrival struct {
	TrainNumber string    `xml:"TreinNummer"`
	TrainType   TrainType `xml:"TreinSoort"`
	Status      string    `xml:"TreinStatus"`
	Provider    string    `xml:"Vervoerder"`

	ArrivalTimeValues     []TextValue `xml:"AankomstTijd"`
	ArrivalPlatformValues []Platform  `xml:"TreinAankomstSpoor"`

	ExactArrivalDelay string `xml:"ExacteAankomstVertraging"`
}

func (a *TrainArrival) ArrivalTime() PlannedActual[TextValue] {
	return resolveTextViews(a.ArrivalTimeValues)
}

func (a *TrainArrival) ArrivalPlatform() PlannedActual[Platform] {
	return resolvePlatformViews(a.ArrivalPlatformValues)
}

type DasMessage struct {
	XMLName xml.Name `xml:"PutReisInformatieBoodschapIn"`

	TrainNumber string       `xml:"ReisInformatieProductDAS>DynamischeAankomstStaat>RitId"`
	RunningOn   string       `xml:"ReisInformatieProductDAS>DynamischeAankomstStaat>RitDatum"`
	Station     Station      `xml:"ReisInformatieProductDAS>DynamischeAankomstStaat>RitStation"`
	Arrival     TrainArrival `xml:"ReisInformatieProductDAS>DynamischeAankomstStaat>TreinAankomst"`
}

// ParseDasMessage decodes one arrival-status message.
func ParseDasMessage(raw []byte) (*DasMessage, error) {
	var message DasMessage
	if err := xml.Unmarshal(raw, &message); err != nil {
		return nil, err
	}

	if message.TrainNumber == "" || message.RunningOn == "" || message.Station.Code == "" {
		return nil, errors.New("das message is missing its journey identity")
	}

	return &message, nil
}
