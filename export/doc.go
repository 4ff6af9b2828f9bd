// Package export writes fit results as compressed CSV frames.
//
// A frame is a 16-byte header (magic, version, table kind, compression type,
// raw and stored payload sizes) followed by the payload: a CSV table with a
// header row, compressed with one of the built-in codecs.
//
//	None  no compression
//	Zstd  Zstandard (klauspost/compress; libzstd with cgo and the gozstd tag)
//	S2    S2 block compression
//	LZ4   LZ4 block compression
//
// Three tables are produced: the completed rows of a regression fit
// (WriteStatistics), the per-iteration parameters recorded by a Trace
// observer, and the components of a mixture (WriteMixture). ReadTable reads
// any of them back.
//
//	trace := export.NewTrace()
//	rem, _ := regression.New(regression.WithObserver(trace))
//	if _, err := rem.Learn(ctx, sample); err != nil {
//	    return err
//	}
//	_, err := export.WriteStatistics(f, format.CompressionZstd, rem.Design(), rem.Statistics())
package export
