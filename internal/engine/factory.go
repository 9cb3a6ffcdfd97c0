package engine

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"

	"github.com/vigilantagent/exporting/internal/config"
	"github.com/vigilantagent/exporting/internal/constants"
	"github.com/vigilantagent/exporting/internal/formatter"
	"github.com/vigilantagent/exporting/internal/formatter/graphite"
	"github.com/vigilantagent/exporting/internal/formatter/jsonfmt"
	"github.com/vigilantagent/exporting/internal/formatter/opentsdb"
	"github.com/vigilantagent/exporting/internal/formatter/remotewrite"
	"github.com/vigilantagent/exporting/internal/instance"
	"github.com/vigilantagent/exporting/internal/model"
	"github.com/vigilantagent/exporting/internal/sdk/kinesis"
	"github.com/vigilantagent/exporting/internal/sdk/mongodb"
	"github.com/vigilantagent/exporting/internal/sdk/pubsub"
	"github.com/vigilantagent/exporting/internal/telemetry"
	"github.com/vigilantagent/exporting/internal/transport"
)

// buildInstance constructs one instance.Instance from its config: a
// formatter.Set for the wire format, a Sender for the destination (simple
// transport or SDK wrapper), and the instance itself, wired with a fresh
// telemetry.Stats. sendNamesDefault is the engine-wide
// exporting.send_names_instead_of_ids default this instance falls back
// to unless it overrides it.
func buildInstance(ctx context.Context, ic *config.InstanceConfig, hostname string, sendNamesDefault bool) (*instance.Instance, error) {
	sinkType, err := model.ParseSinkType(ic.Type)
	if err != nil {
		return nil, fmt.Errorf("engine: instance %s: %w", ic.Name, err)
	}
	dataSource, err := model.ParseDataSource(ic.DataSource)
	if err != nil {
		return nil, fmt.Errorf("engine: instance %s: %w", ic.Name, err)
	}
	_ = dataSource // the instance-level data_source is parsed and validated
	// only; it is not applied: every reduction uses the dimension's own
	// DataSource().

	fmtr, err := buildFormatter(sinkType)
	if err != nil {
		return nil, fmt.Errorf("engine: instance %s: %w", ic.Name, err)
	}

	sender, err := buildSender(ctx, sinkType, ic, fmtr.ContentType())
	if err != nil {
		return nil, fmt.Errorf("engine: instance %s: %w", ic.Name, err)
	}

	meta := formatter.BatchMeta{
		Hostname:    hostname,
		Prefix:      ic.Prefix,
		UpdateEvery: ic.UpdateEvery(),
		Options:     instanceOptions(ic, sendNamesDefault),
	}
	stats := &telemetry.Stats{}
	return instance.New(ic.Name, meta, fmtr, sender, ic.BufferDepth(), ic.BufferDepth(), ic.UpdateEvery(), stats, ic.HostsPattern, ic.ChartsPattern), nil
}

// instanceOptions builds the per-instance option bitmap (§3, §6) from its
// config, the way every other piece of wiring in this file derives
// runtime behavior straight from InstanceConfig fields.
func instanceOptions(ic *config.InstanceConfig, sendNamesDefault bool) model.Options {
	var opts model.Options
	if ic.SendNames(sendNamesDefault) {
		opts |= model.OptSendNamesInsteadOfIDs
	}
	if ic.SendConfiguredLabels {
		opts |= model.OptSendConfiguredLabels
	}
	if ic.SendAutomaticLabels {
		opts |= model.OptSendAutomaticLabels
	}
	if ic.SendVariables {
		opts |= model.OptSendVariables
	}
	if ic.UseTLS {
		opts |= model.OptUseTLS
	}
	return opts
}

func buildFormatter(t model.SinkType) (formatter.Set, error) {
	switch t {
	case model.Graphite, model.GraphiteHTTP:
		return graphite.New(), nil
	case model.OpenTSDB:
		return opentsdb.New(false), nil
	case model.OpenTSDBHTTP:
		return opentsdb.New(true), nil
	case model.JSON, model.JSONHTTP:
		return jsonfmt.New(), nil
	case model.PrometheusRemoteWrite:
		return remotewrite.New(), nil
	case model.Kinesis, model.PubSub, model.MongoDB:
		// SDK-backed sinks still need a wire encoding for the payload
		// handed to the SDK; JSON is the simplest self-describing choice.
		return jsonfmt.New(), nil
	default:
		return nil, fmt.Errorf("engine: no formatter for sink type %s", t)
	}
}

func buildSender(ctx context.Context, t model.SinkType, ic *config.InstanceConfig, contentType string) (instance.Sender, error) {
	timeout := ic.Timeout()
	authHeader := transport.BasicAuthHeader(ic.Username, ic.Password)

	switch {
	case t.IsSDK():
		switch t {
		case model.Kinesis:
			s, err := kinesis.New(ctx, ic.Stream, ic.Name)
			return s, err
		case model.PubSub:
			s, err := pubsub.New(ctx, ic.ProjectID, ic.Topic)
			return s, err
		case model.MongoDB:
			s, err := mongodb.New(ctx, ic.MongoURI, ic.Database, ic.Collection)
			return s, err
		}
		return nil, fmt.Errorf("engine: unhandled sdk sink type %s", t)

	case t.IsHTTP():
		urlPath := ic.RemoteWriteURLPath
		if urlPath == "" {
			if t == model.PrometheusRemoteWrite {
				urlPath = "/receive"
			}
			if t == model.OpenTSDBHTTP {
				urlPath = constants.DefaultOpenTSDBPath
			}
		}
		h := transport.NewHTTPSender(ic.Destination+urlPath, http.MethodPost, contentType, authHeader, ic.ExtraHeaders, timeout)
		return instance.NewHTTPSender(h), nil

	default:
		simple := transport.NewSimple("tcp", ic.Destination, tlsConfigFor(ic), timeout)
		return instance.NewSimpleSender(simple), nil
	}
}

func tlsConfigFor(ic *config.InstanceConfig) *tls.Config {
	if !ic.UseTLS {
		return nil
	}
	return &tls.Config{MinVersion: tls.VersionTLS12}
}
