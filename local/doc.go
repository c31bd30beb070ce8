// Package local hosts an API behind a plain HTTP listener, for running a
// gateway application on a development machine.
//
// The server translates each HTTP request into the gateway event format,
// dispatches it through the API, and writes the returned envelope back as
// the HTTP response, so handlers behave identically under both hosts:
//
//	cfg, err := local.LoadConfig()
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	srv := local.New(api, cfg)
//	if err := srv.Run(ctx); err != nil {
//		log.Fatal(err)
//	}
//
// Configuration comes from the environment, with a .env file loaded when
// present.
package local
