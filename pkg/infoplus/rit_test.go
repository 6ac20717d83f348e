package infoplus

import (
	"testing"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const ritSample = `
<PutReisInformatieBoodschapIn>
	<ReisInformatieProductRitInfo>
		<RIPAdministratie>
			<ReisInformatieProductID>rip-20250601-0001</ReisInformatieProductID>
			<ReisInformatieTijdstip>2025-06-01T04:00:00Z</ReisInformatieTijdstip>
		</RIPAdministratie>
		<RitInfo>
			<TreinNummer>1234</TreinNummer>
			<TreinDatum>2025-06-01</TreinDatum>
			<TreinSoort Code="IC">Intercity</TreinSoort>
			<Vervoerder>NS</Vervoerder>
			<LogischeRit>
				<LogischeRitNummer>1234</LogischeRitNummer>
				<LogischeRitDeel>
					<LogischeRitDeelNummer>1234</LogischeRitDeelNummer>
					<LogischeRitDeelStation>
						<Station>
							<StationCode>ASD</StationCode>
							<LangeNaam>Amsterdam Centraal</LangeNaam>
						</Station>
						<StationnementType>X</StationnementType>
						<Stopt InfoStatus="Gepland">J</Stopt>
						<VertrekTijd InfoStatus="Gepland">2025-06-01T04:30:00Z</VertrekTijd>
						<VertrekTijd InfoStatus="Actueel">2025-06-01T04:32:00Z</VertrekTijd>
						<TreinVertrekSpoor InfoStatus="Gepland">
							<SpoorNummer>11</SpoorNummer>
							<SpoorFase>a</SpoorFase>
						</TreinVertrekSpoor>
						<MaterieelDeel>
							<MaterieelDeelID>9520</MaterieelDeelID>
							<MaterieelDeelSoort>VIRM</MaterieelDeelSoort>
							<MaterieelDeelAanduiding>VIRM-6</MaterieelDeelAanduiding>
							<MaterieelDeelVolgordeVertrek>1</MaterieelDeelVolgordeVertrek>
						</MaterieelDeel>
					</LogischeRitDeelStation>
					<LogischeRitDeelStation>
						<Station>
							<StationCode>ASS</StationCode>
						</Station>
						<StationnementType>D</StationnementType>
						<Stopt InfoStatus="Gepland">N</Stopt>
						<Wijziging>
							<WijzigingType>44</WijzigingType>
						</Wijziging>
					</LogischeRitDeelStation>
				</LogischeRitDeel>
			</LogischeRit>
		</RitInfo>
	</ReisInformatieProductRitInfo>
</PutReisInformatieBoodschapIn>`

func TestParseRitMessage(t *testing.T) {
	message, err := ParseRitMessage([]byte(ritSample))
	require.NoError(t, err)

	assert.Equal(t, "rip-20250601-0001", message.Administration.ProductID)
	assert.Equal(t, "2025-06-01T04:00:00Z", message.Administration.Timestamp)

	info := message.RitInfo
	assert.Equal(t, "1234", info.TrainNumber)
	assert.Equal(t, "2025-06-01", info.TrainDate)
	assert.Equal(t, "IC", info.TrainType.Code)
	assert.Equal(t, "Intercity", info.TrainType.Name)
	assert.Equal(t, "NS", info.Provider)

	require.Len(t, info.Trips, 1)
	require.Len(t, info.Trips[0].Segments, 1)

	segment := info.Trips[0].Segments[0]
	assert.Equal(t, "1234", segment.TrainNumber)
	require.Len(t, segment.Stops, 2)

	origin := segment.Stops[0]
	assert.Equal(t, "asd", origin.StationCode())
	assert.Equal(t, "Amsterdam Centraal", origin.Station.LongName)
	assert.Equal(t, StopTypeStop, origin.StopType)

	departure := origin.DepartureTime()
	require.NotNil(t, departure.Planned)
	assert.Equal(t, "2025-06-01T04:30:00Z", departure.Planned.Value)
	require.NotNil(t, departure.Actual)
	assert.Equal(t, "2025-06-01T04:32:00Z", departure.Actual.Value)

	platform := origin.DeparturePlatform()
	require.NotNil(t, platform.Planned)
	assert.Equal(t, "11a", platform.Planned.Display())
	assert.Nil(t, platform.Actual)

	require.Len(t, origin.RollingStock, 1)
	assert.Equal(t, "9520", origin.RollingStock[0].ID)
	assert.Equal(t, "VIRM", origin.RollingStock[0].Kind)
	assert.Equal(t, "VIRM-6", origin.RollingStock[0].Designation)

	passage := segment.Stops[1]
	assert.Equal(t, StopTypePassage, passage.StopType)
	require.NotNil(t, passage.Stops().Planned)
	assert.Equal(t, BoolFalse, passage.Stops().Planned.Value)
	assert.True(t, HasChange(passage.Changes, ChangePassageCancelled))
	assert.False(t, HasChange(passage.Changes, ChangeArrivalCancelled))
}

func TestParseRitMessageRejectsIncompleteEnvelopes(t *testing.T) {
	testCases := []struct {
		name string
		raw  string
	}{
		{
			name: "not xml at all",
			raw:  `{"TreinNummer": "1234"}`,
		},
		{
			name: "missing train number",
			raw: `<PutReisInformatieBoodschapIn>
				<ReisInformatieProductRitInfo>
					<RitInfo><TreinDatum>2025-06-01</TreinDatum></RitInfo>
				</ReisInformatieProductRitInfo>
			</PutReisInformatieBoodschapIn>`,
		},
		{
			name: "no logical trip",
			raw: `<PutReisInformatieBoodschapIn>
				<ReisInformatieProductRitInfo>
					<RitInfo>
						<TreinNummer>1234</TreinNummer>
						<TreinDatum>2025-06-01</TreinDatum>
					</RitInfo>
				</ReisInformatieProductRitInfo>
			</PutReisInformatieBoodschapIn>`,
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			_, err := ParseRitMessage([]byte(testCase.raw))
			assert.Error(t, err)
		})
	}
}

func TestActualOrPlanned(t *testing.T) {
	t.Run("live value wins", func(t *testing.T) {
		pair := resolveTextViews([]TextValue{
			{InfoStatus: InfoStatusPlanned, Value: "planned"},
			{InfoStatus: InfoStatusActual, Value: "actual"},
		})

		require.NotNil(t, pair.ActualOrPlanned())
		assert.Equal(t, "actual", pair.ActualOrPlanned().Value)
	})

	t.Run("falls back to the plan", func(t *testing.T) {
		pair := resolveTextViews([]TextValue{
			{InfoStatus: InfoStatusPlanned, Value: "planned"},
		})

		require.NotNil(t, pair.ActualOrPlanned())
		assert.Equal(t, "planned", pair.ActualOrPlanned().Value)
	})

	t.Run("absent entirely", func(t *testing.T) {
		pair := resolveTextViews(nil)

		assert.Nil(t, pair.ActualOrPlanned())
	})
}

func TestLocalTimeOfDay(t *testing.T) {
	t.Run("summer time", func(t *testing.T) {
		local, err := LocalTimeOfDay("2025-06-01T04:30:00Z")

		require.NoError(t, err)
		assert.Equal(t, "06:30:00", local)
	})

	t.Run("winter time", func(t *testing.T) {
		local, err := LocalTimeOfDay("2025-12-01T04:30:00Z")

		require.NoError(t, err)
		assert.Equal(t, "05:30:00", local)
	})

	t.Run("offset timestamps normalise", func(t *testing.T) {
		local, err := LocalTimeOfDay("2025-06-01T06:30:00+02:00")

		require.NoError(t, err)
		assert.Equal(t, "06:30:00", local)
	})

	t.Run("garbage is an error", func(t *testing.T) {
		_, err := LocalTimeOfDay("around half past six")

		assert.Error(t, err)
	})
}
