/*
Package bind turns declarative references into typed storage handles.

An Engine matches the requested Shape against an immutable Registry of rules,
infers an access mode when the reference declares none, parses the path, and
runs the matched rule's converter.  Converters resolve the container through
a resolv.Resolver, which creates it when the binding is writable.

	reg, _ := bind.Default()
	engine := bind.NewEngine(reg, resolv.NewResolver(provider, nil, nil))

	r, err := bind.As[io.ReadCloser](engine.Bind(ctx,
		blobbind.Reference{Path: "photos/cat.jpg", Access: blobbind.Read},
		blobbind.ShapeOf(blobbind.Stream)))

Collections enumerate every item under a prefix and convert each one to the
element kind, in listing order.
*/
package bind
