// Package mongo bootstraps a MongoDB client from environment configuration,
// with connection retries and a healthcheck suitable for readiness probes.
//
// The delivery log (pkg/deliverylog) and the submission intake store their
// documents through the returned *mongo.Database.
//
//	var cfg mongo.Config
//	config.MustLoad(&cfg)
//
//	db, err := mongo.NewWithDatabase(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer db.Client().Disconnect(context.Background())
//
// Connection failures are reported as ErrFailedToConnectToMongo joined with
// the last driver error; use errors.Is to check for them.
package mongo
