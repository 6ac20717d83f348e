package influx_client

import (
	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"

	"github.com/treinwerk/treinwerk/pkg/util"
)

var Client influxdb2.Client
var Write api.WriteAPIBlocking

const defaultConnectionAddress = "http://localhost:8086"

func Connect() error {
	address := defaultConnectionAddress

	env := util.GetEnvironmentVariables()

	if env["TREINWERK_INFLUX_ADDRESS"] != "" {
		address = env["TREINWERK_INFLUX_ADDRESS"]
	}

	Client = influxdb2.NewClient(address, env["TREINWERK_INFLUX_TOKEN"])
	Write = Client.WriteAPIBlocking(env["TREINWERK_INFLUX_ORG"], env["TREINWERK_INFLUX_BUCKET"])

	return nil
}
