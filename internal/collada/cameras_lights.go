package collada

import (
	"math"
	"strconv"

	"mu-bmd-collada/internal/scene"
)

func (p *pass) writeCameras() {
	if len(p.scene.Cameras) == 0 {
		return
	}
	p.w.block("library_cameras", nil, func() {
		for i := range p.scene.Cameras {
			p.writeCamera(i)
		}
	})
}

func (p *pass) writeCamera(i int) {
	cam := p.scene.Cameras[i]
	if cam == nil {
		cam = scene.NewCamera("")
	}
	w := p.w
	w.open("camera", a("id", p.reg.ObjectID(KindCamera, i)), a("name", p.reg.ObjectName(KindCamera, i)))
	w.open("optics")
	w.open("technique_common")
	w.open("perspective")
	xfov := float32(cam.HorizontalFOV * 180 / math.Pi)
	w.element("xfov", fstr(xfov), a("sid", "xfov"))
	w.element("aspect_ratio", fstr(cam.Aspect))
	w.element("znear", fstr(cam.Near), a("sid", "znear"))
	w.element("zfar", fstr(cam.Far), a("sid", "zfar"))
	w.close("perspective")
	w.close("technique_common")
	w.close("optics")
	w.close("camera")
}

func (p *pass) writeLights() {
	if len(p.scene.Lights) == 0 {
		return
	}
	p.w.block("library_lights", nil, func() {
		for i := range p.scene.Lights {
			p.writeLight(i)
		}
	})
}

func (p *pass) writeLight(i int) {
	l := p.scene.Lights[i]
	w := p.w
	w.open("light", a("id", p.reg.ObjectID(KindLight, i)), a("name", p.reg.ObjectName(KindLight, i)))
	w.open("technique_common")
	if l != nil {
		switch l.Type {
		case scene.LightPoint:
			p.writePointLight(l)
		case scene.LightDirectional:
			p.writeDirectionalLight(l)
		case scene.LightSpot:
			p.writeSpotLight(l)
		case scene.LightAmbient:
			p.writeAmbientLight(l)
		}
	}
	w.close("technique_common")
	w.close("light")
}

func (p *pass) writeLightColor(c scene.RGB) {
	p.w.element("color", fstr(c.R)+" "+fstr(c.G)+" "+fstr(c.B), a("sid", "color"))
}

func (p *pass) writeAttenuation(l *scene.Light) {
	w := p.w
	w.element("constant_attenuation", fstr(l.AttenuationConstant))
	w.element("linear_attenuation", fstr(l.AttenuationLinear))
	w.element("quadratic_attenuation", fstr(l.AttenuationQuadratic))
}

func (p *pass) writePointLight(l *scene.Light) {
	p.w.block("point", nil, func() {
		p.writeLightColor(l.Diffuse)
		p.writeAttenuation(l)
	})
}

func (p *pass) writeDirectionalLight(l *scene.Light) {
	p.w.block("directional", nil, func() {
		p.writeLightColor(l.Diffuse)
	})
}

// writeSpotLight maps the cone onto falloff_angle (the inner cone in
// degrees) and a falloff exponent that reaches 10% intensity at the outer
// cone.
func (p *pass) writeSpotLight(l *scene.Light) {
	p.w.block("spot", nil, func() {
		p.writeLightColor(l.Diffuse)
		p.writeAttenuation(l)
		angle := float32(float64(l.InnerCone) * 180 / math.Pi)
		p.w.element("falloff_angle", fstr(angle), a("sid", "fall_off_angle"))
		p.w.element("falloff_exponent", fstr(spotExponent(l)), a("sid", "fall_off_exponent"))
	})
}

func spotExponent(l *scene.Light) float32 {
	spread := math.Cos(float64(l.OuterCone - l.InnerCone))
	if spread <= 0 || spread >= 1 {
		return 0
	}
	return float32(1 / (math.Log(spread) / math.Log(0.1)))
}

func (p *pass) writeAmbientLight(l *scene.Light) {
	p.w.block("ambient", nil, func() {
		p.writeLightColor(l.Ambient)
	})
}

func fstr(v float32) string {
	return strconv.FormatFloat(float64(v), 'g', -1, 32)
}
